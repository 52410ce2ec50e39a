package videos

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/clipshelf/clipshelf/pkg/errcodes"
	"github.com/clipshelf/clipshelf/pkg/models"
	"github.com/clipshelf/clipshelf/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	videoService *Service
	uploadStore  *uploads.Store
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Video")
	}

	video, err := h.videoService.RetrieveVideo(ctx, RetrieveVideoOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, video))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListVideosQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListVideosOptions{
		Tag:    params.Tag,
		Limit:  &params.Limit,
		Offset: &params.Offset,
	}

	var videos []*models.Video
	var total int
	var err error

	if params.Tag != nil {
		// The total counts every video carrying the tag, not just the page.
		videos, err = h.videoService.ListVideos(ctx, opts)
		if err != nil {
			return errors.WithStack(err)
		}
		total, err = h.videoService.CountVideosByTag(ctx, *params.Tag)
	} else {
		videos, total, err = h.videoService.ListVideosWithTotal(ctx, opts)
	}
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Videos []*models.Video `json:"videos"`
		Total  int             `json:"total"`
	}{videos, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	// Bind params.
	params := CreateVideoPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	saved, err := h.uploadStore.Save(ctx, params.FormFiles["video_file"])
	if err != nil {
		return errors.WithStack(err)
	}

	video := &models.Video{
		Title:       params.Title,
		Description: params.Description,
		VideoFile:   saved.Filename,
		DurationMS:  saved.DurationMS,
	}

	err = h.videoService.CreateVideo(ctx, video, params.Tags)
	if err != nil {
		// The row never landed, so don't leave the file orphaned.
		if rmErr := h.uploadStore.Remove(saved.Filename); rmErr != nil {
			log.Warn("failed to remove orphaned upload", logger.Data{"filename": saved.Filename, "error": rmErr.Error()})
		}
		return errors.WithStack(err)
	}

	// Reload the model so the response includes the tags.
	video, err = h.videoService.RetrieveVideo(ctx, RetrieveVideoOptions{
		ID: &video.ID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, video))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Video")
	}

	// Bind params.
	params := UpdateVideoPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Only a payload that sets nothing at all is an error. A field set to
	// its current value is a valid no-op edit.
	if params.Title == nil && params.Description == nil && params.Tags == nil && params.FormFiles["video_file"] == nil {
		return errcodes.ValidationError("No fields to update.")
	}

	// Fetch the video.
	video, err := h.videoService.RetrieveVideo(ctx, RetrieveVideoOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// Keep track of what's been changed.
	opts := UpdateVideoOptions{Columns: []string{}}

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return errcodes.ValidationError(`"title" can't be empty`)
		}
		if title != video.Title {
			video.Title = title
			opts.Columns = append(opts.Columns, "title")
		}
	}
	if params.Description != nil && *params.Description != video.Description {
		video.Description = *params.Description
		opts.Columns = append(opts.Columns, "description")
	}

	// An uploaded file replaces the stored one. Validate and persist the new
	// file before touching the row so a rejected upload changes nothing.
	oldFile := ""
	if fh := params.FormFiles["video_file"]; fh != nil {
		saved, err := h.uploadStore.Save(ctx, fh)
		if err != nil {
			return errors.WithStack(err)
		}
		oldFile = video.VideoFile
		video.VideoFile = saved.Filename
		video.DurationMS = saved.DurationMS
		opts.Columns = append(opts.Columns, "video_file", "duration_ms")
	}

	if len(opts.Columns) > 0 {
		err = h.videoService.UpdateVideo(ctx, video, opts)
		if err != nil {
			if oldFile != "" {
				if rmErr := h.uploadStore.Remove(video.VideoFile); rmErr != nil {
					log.Warn("failed to remove orphaned upload", logger.Data{"filename": video.VideoFile, "error": rmErr.Error()})
				}
			}
			return errors.WithStack(err)
		}
	}

	if params.Tags != nil {
		if _, err := h.videoService.ReplaceTags(ctx, video.ID, params.Tags); err != nil {
			return errors.WithStack(err)
		}
	}

	// The old file is unreferenced once the row points at the new one.
	if oldFile != "" {
		if rmErr := h.uploadStore.Remove(oldFile); rmErr != nil {
			log.Warn("failed to remove replaced video file", logger.Data{"filename": oldFile, "error": rmErr.Error()})
		}
	}

	// Reload the model.
	video, err = h.videoService.RetrieveVideo(ctx, RetrieveVideoOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, video))
}
