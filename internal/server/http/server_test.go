package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/storefront/internal/config"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func serve(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthAndRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := NewEcho(config.Config{}, nil, zap.New(core))

	rec := serve(e, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, 1, logs.FilterMessage("http request").Len())
}

func TestRecoverFromHandlerPanic(t *testing.T) {
	e := NewEcho(config.Config{}, nil, zap.NewNop())
	e.GET("/boom", func(echo.Context) error { panic("boom") })

	rec := serve(e, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReadiness(t *testing.T) {
	e := NewEcho(config.Config{}, nil, zap.NewNop())
	core, logs := observer.New(zap.WarnLevel)
	healthy := true
	registerReadiness(e, pingerFunc(func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("dial tcp 10.0.0.7:5432: connection refused")
	}), zap.New(core))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/ready").Code)
	assert.Zero(t, logs.Len())

	healthy = false
	rec := serve(e, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")

	entries := logs.FilterMessage("readiness check failed").All()
	if assert.Len(t, entries, 1) {
		assert.Contains(t, entries[0].ContextMap()["error"], "connection refused")
	}
}
