package tags

import (
	"net/http"
	"strconv"

	"github.com/clipshelf/clipshelf/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	tagService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	tags, err := h.tagService.ListTags(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"tags": tags,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateTagPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	tag, err := h.tagService.FindOrCreateTag(ctx, params.Name)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, tag))
}

func (h *handler) videos(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Tag")
	}

	// Fetch the tag first so an unknown id 404s instead of returning an
	// empty list.
	if _, err := h.tagService.RetrieveTag(ctx, RetrieveTagOptions{ID: &id}); err != nil {
		return errors.WithStack(err)
	}

	videos, err := h.tagService.GetVideos(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, videos))
}
