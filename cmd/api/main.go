package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/storefront/internal/app"
	"github.com/Additional-Code/storefront/internal/logger"
)

func main() {
	fx.New(app.Module, logger.FxEvents).Run()
}
