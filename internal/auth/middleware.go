package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/presentation/http/response"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

const userContextKey = "auth.user"

// RequireUser rejects requests without a valid bearer token and stores the
// resolved user on the echo context for downstream handlers.
func (a *Authenticator) RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return response.New(c).WithError(err).Build()
			}

			user, err := a.Resolve(c.Request().Context(), token)
			if err != nil {
				return response.New(c).WithError(err).Build()
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by RequireUser.
func CurrentUser(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(userContextKey).(*entity.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errorbank.Unauthorized("authorization header required")
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errorbank.Unauthorized("invalid authorization header format")
	}
	return token, nil
}
