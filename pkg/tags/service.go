package tags

import (
	"context"
	"database/sql"
	"time"

	"github.com/clipshelf/clipshelf/pkg/errcodes"
	"github.com/clipshelf/clipshelf/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveTagOptions struct {
	ID   *int
	Name *string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateTag(ctx context.Context, tag *models.Tag) error {
	now := time.Now()
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = now
	}
	tag.UpdatedAt = tag.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(tag).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveTag(ctx context.Context, opts RetrieveTagOptions) (*models.Tag, error) {
	tag := &models.Tag{}

	q := svc.db.
		NewSelect().
		Model(tag)

	if opts.ID != nil {
		q = q.Where("t.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		// Exact match: tag names are case-sensitive.
		q = q.Where("t.name = ?", *opts.Name)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Tag")
		}
		return nil, errors.WithStack(err)
	}

	return tag, nil
}

// FindOrCreateTag returns the existing tag with this exact name, or creates
// it. Re-adding an existing name always returns the existing row, never a
// duplicate.
func (svc *Service) FindOrCreateTag(ctx context.Context, name string) (*models.Tag, error) {
	normalized := Normalize([]string{name})
	if len(normalized) == 0 {
		return nil, errcodes.ValidationError("Tag name cannot be empty.")
	}
	name = normalized[0]

	tag, err := svc.RetrieveTag(ctx, RetrieveTagOptions{Name: &name})
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, errcodes.NotFound("Tag")) {
		return nil, err
	}

	tag = &models.Tag{Name: name}
	err = svc.CreateTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags returns all tags ordered by name, each with its video count.
func (svc *Service) ListTags(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag

	err := svc.db.
		NewSelect().
		Model(&tags).
		ColumnExpr("t.*").
		ColumnExpr("(SELECT COUNT(*) FROM video_tags vt WHERE vt.tag_id = t.id) AS video_count").
		Order("t.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return tags, nil
}

// ListTagNames returns all tag names ordered ascending.
func (svc *Service) ListTagNames(ctx context.Context) ([]string, error) {
	names := []string{}

	err := svc.db.
		NewSelect().
		Model((*models.Tag)(nil)).
		Column("t.name").
		Order("t.name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return names, nil
}

// ListTagNamesForVideo returns the names of the tags attached to a video,
// ordered ascending.
func (svc *Service) ListTagNamesForVideo(ctx context.Context, videoID int) ([]string, error) {
	names := []string{}

	err := svc.db.
		NewSelect().
		Model((*models.Tag)(nil)).
		Column("t.name").
		Join("INNER JOIN video_tags vt ON vt.tag_id = t.id").
		Where("vt.video_id = ?", videoID).
		Order("t.name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return names, nil
}

// GetVideoCount returns the count of videos carrying this tag.
func (svc *Service) GetVideoCount(ctx context.Context, tagID int) (int, error) {
	count, err := svc.db.NewSelect().
		Model((*models.VideoTag)(nil)).
		Where("tag_id = ?", tagID).
		Count(ctx)
	return count, errors.WithStack(err)
}

// GetVideos returns all videos carrying this tag, newest first.
func (svc *Service) GetVideos(ctx context.Context, tagID int) ([]*models.Video, error) {
	var videos []*models.Video

	err := svc.db.NewSelect().
		Model(&videos).
		Join("INNER JOIN video_tags vt ON vt.video_id = v.id").
		Where("vt.tag_id = ?", tagID).
		Order("v.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return videos, nil
}
