package authn_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/auth"
	"github.com/Additional-Code/storefront/internal/cache"
	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database/databasetest"
	"github.com/Additional-Code/storefront/internal/dto"
	"github.com/Additional-Code/storefront/internal/entity"
	userrepo "github.com/Additional-Code/storefront/internal/repository/user"
	httpserver "github.com/Additional-Code/storefront/internal/server/http"
	"github.com/Additional-Code/storefront/internal/transport/http/authn"
)

func TestLogin(t *testing.T) {
	conns := databasetest.Open(t)
	cfg := config.Config{Auth: config.Auth{JWTSecret: "test-secret", Issuer: "storefront", TokenTTL: time.Hour}}
	tokens := auth.NewTokens(cfg)
	authenticator := auth.NewAuthenticator(auth.Params{
		Users:  userrepo.NewRepository(conns),
		Tokens: tokens,
		Cache:  cache.NewMemoryStore(time.Minute),
		Config: cfg,
		Logger: zap.NewNop(),
	})

	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	user := databasetest.InsertUser(t, conns, entity.User{Email: "alice@example.com", Name: "Alice", PasswordHash: hash})

	e := httpserver.NewEcho(cfg, nil, zap.NewNop())
	authn.Register(e, authn.NewHandler(authenticator))

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"email":"alice@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, user.ID, out.User.ID)
	assert.NotContains(t, rec.Body.String(), hash)

	claims, err := tokens.Parse(out.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	rec = post(`{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"unauthorized"`)

	assert.Equal(t, http.StatusBadRequest, post(`{"email":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{`).Code)
}
