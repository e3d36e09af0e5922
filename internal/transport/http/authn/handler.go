package authn

import (
	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/storefront/internal/auth"
	"github.com/Additional-Code/storefront/internal/dto"
	"github.com/Additional-Code/storefront/internal/presentation/http/response"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

// Handler exposes credential exchange over HTTP.
type Handler struct {
	authn *auth.Authenticator
}

// NewHandler constructs a login Handler.
func NewHandler(authn *auth.Authenticator) *Handler {
	return &Handler{authn: authn}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.POST("/auth/login", h.login)
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c).Bare()

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Email == "" || payload.Password == "" {
		return b.WithError(errorbank.BadRequest("email and password are required")).Build()
	}

	user, token, expiresAt, err := h.authn.Login(c.Request().Context(), payload.Email, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}).Build()
}
