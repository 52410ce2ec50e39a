package tags

import (
	"github.com/clipshelf/clipshelf/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers tag routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		tagService: NewService(db),
	}

	g.GET("", h.list)
	g.GET("/:id/videos", h.videos)
	g.POST("", h.create, authMiddleware.RequireToken)
}
