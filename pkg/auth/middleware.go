package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/clipshelf/clipshelf/pkg/config"
	"github.com/clipshelf/clipshelf/pkg/errcodes"
	"github.com/labstack/echo/v4"
)

// Middleware gates mutating routes behind a static API token. An empty
// configured token disables the check entirely.
type Middleware struct {
	token string
}

func NewMiddleware(cfg *config.Config) *Middleware {
	return &Middleware{
		token: cfg.APIToken,
	}
}

// RequireToken checks the Authorization (Bearer) or X-API-Token header
// against the configured token.
func (m *Middleware) RequireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.token == "" {
			return next(c)
		}

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			header = c.Request().Header.Get("X-API-Token")
		}
		token := strings.TrimPrefix(header, "Bearer ")

		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(m.token)) != 1 {
			return errcodes.Unauthorized("Unauthorized")
		}

		return next(c)
	}
}
