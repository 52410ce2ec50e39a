package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/clipshelf/clipshelf/pkg/auth"
	"github.com/clipshelf/clipshelf/pkg/binder"
	"github.com/clipshelf/clipshelf/pkg/config"
	"github.com/clipshelf/clipshelf/pkg/errcodes"
	"github.com/clipshelf/clipshelf/pkg/tags"
	"github.com/clipshelf/clipshelf/pkg/uploads"
	"github.com/clipshelf/clipshelf/pkg/videos"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, store *uploads.Store) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	authMiddleware := auth.NewMiddleware(cfg)

	videosGroup := e.Group("/videos")
	videos.RegisterRoutesWithGroup(videosGroup, db, store, authMiddleware)

	tagsGroup := e.Group("/tags")
	tags.RegisterRoutesWithGroup(tagsGroup, db, authMiddleware)

	// Stored files are served straight from the upload root.
	e.Static("/static/videos", store.Root())

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
