package videos

import (
	"github.com/clipshelf/clipshelf/pkg/auth"
	"github.com/clipshelf/clipshelf/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers video routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, store *uploads.Store, authMiddleware *auth.Middleware) {
	h := &handler{
		videoService: NewService(db),
		uploadStore:  store,
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, authMiddleware.RequireToken)
	g.PUT("/:id", h.update, authMiddleware.RequireToken)
}
