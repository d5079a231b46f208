package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"trueka/internal/usecase"
)

type AuthMiddleware struct {
	auth *usecase.AuthUseCase
}

func NewAuthMiddleware(auth *usecase.AuthUseCase) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := bearerToken(c)
		if err != nil {
			return err
		}

		identity := m.auth.Resolve(c.Request().Context(), token)
		if identity == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		c.Set("uid", identity.ID)
		c.Set("identity", identity)
		c.Set("token", token)

		return next(c)
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
	}
	return parts[1], nil
}
