package http

import (
	"go.uber.org/fx"

	authntransport "github.com/Additional-Code/storefront/internal/transport/http/authn"
	ordertransport "github.com/Additional-Code/storefront/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	authntransport.Module,
	ordertransport.Module,
)
