package videos

import (
	"context"
	"database/sql"
	"time"

	"github.com/clipshelf/clipshelf/pkg/errcodes"
	"github.com/clipshelf/clipshelf/pkg/models"
	"github.com/clipshelf/clipshelf/pkg/tags"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveVideoOptions struct {
	ID *int
}

type ListVideosOptions struct {
	ID     *int
	Tag    *string
	Limit  *int
	Offset *int

	includeTotal bool
}

type UpdateVideoOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateVideo inserts the video row and its normalized tag set in a single
// transaction. The generated id is set on the model.
func (svc *Service) CreateVideo(ctx context.Context, video *models.Video, tagNames []string) error {
	now := time.Now()
	if video.CreatedAt.IsZero() {
		video.CreatedAt = now
	}
	video.UpdatedAt = video.CreatedAt

	normalized := tags.Normalize(tagNames)

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewInsert().
			Model(video).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return svc.applyTags(ctx, tx, video.ID, normalized)
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveVideo(ctx context.Context, opts RetrieveVideoOptions) (*models.Video, error) {
	video := &models.Video{}

	q := svc.db.
		NewSelect().
		Model(video).
		Relation("Tags", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("t.name ASC")
		})

	if opts.ID != nil {
		q = q.Where("v.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Video")
		}
		return nil, errors.WithStack(err)
	}

	return video, nil
}

func (svc *Service) ListVideos(ctx context.Context, opts ListVideosOptions) ([]*models.Video, error) {
	v, _, err := svc.listVideosWithTotal(ctx, opts)
	return v, errors.WithStack(err)
}

func (svc *Service) ListVideosWithTotal(ctx context.Context, opts ListVideosOptions) ([]*models.Video, int, error) {
	opts.includeTotal = true
	return svc.listVideosWithTotal(ctx, opts)
}

func (svc *Service) listVideosWithTotal(ctx context.Context, opts ListVideosOptions) ([]*models.Video, int, error) {
	videos := []*models.Video{}
	var total int
	var err error

	// Tags are loaded with a separate relation query, so limit/offset select
	// whole videos and a video is never split across a page boundary.
	q := svc.db.
		NewSelect().
		Model(&videos).
		Relation("Tags", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("t.name ASC")
		}).
		Order("v.id DESC")

	if opts.ID != nil {
		q = q.Where("v.id = ?", *opts.ID)
	}
	if opts.Tag != nil {
		q = q.Where("v.id IN (SELECT vt.video_id FROM video_tags vt INNER JOIN tags t ON t.id = vt.tag_id WHERE t.name = ?)", *opts.Tag)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return videos, total, nil
}

// CountVideosByTag counts the distinct videos carrying the given tag name
// (exact match).
func (svc *Service) CountVideosByTag(ctx context.Context, tag string) (int, error) {
	// (video_id, tag_id) is unique, so counting join rows counts videos.
	count, err := svc.db.
		NewSelect().
		Model((*models.VideoTag)(nil)).
		Join("INNER JOIN tags t ON t.id = vt.tag_id").
		Where("t.name = ?", tag).
		Count(ctx)
	return count, errors.WithStack(err)
}

// UpdateVideo writes only the listed columns. An empty column list is a
// validation error rather than a silent no-op, so callers can't mistake an
// accidental empty update for success.
func (svc *Service) UpdateVideo(ctx context.Context, video *models.Video, opts UpdateVideoOptions) error {
	if len(opts.Columns) == 0 {
		return errcodes.ValidationError("No fields to update.")
	}

	now := time.Now()
	video.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(video).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errcodes.NotFound("Video")
	}
	return nil
}

// ReplaceTags atomically swaps the video's whole tag set: it deletes every
// existing join row and reinserts the normalized list, creating unseen tags
// on the way. Any failure rolls the whole replacement back, leaving the prior
// tag set untouched. Delete-then-reinsert is deliberate: tag sets are small
// and callers must never observe a partially-replaced set.
//
// Concurrent replacements for the same video are not serialized beyond
// SQLite's transaction semantics; the last committed transaction wins.
func (svc *Service) ReplaceTags(ctx context.Context, videoID int, tagNames []string) ([]string, error) {
	normalized := tags.Normalize(tagNames)

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewDelete().
			Model((*models.VideoTag)(nil)).
			Where("video_id = ?", videoID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return svc.applyTags(ctx, tx, videoID, normalized)
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return normalized, nil
}

// applyTags resolves each name to a tag row, creating missing ones, and
// links it to the video. Names must already be normalized.
func (svc *Service) applyTags(ctx context.Context, tx bun.Tx, videoID int, names []string) error {
	now := time.Now()

	for _, name := range names {
		tag := &models.Tag{
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err := tx.
			NewInsert().
			Model(tag).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		// The insert leaves the id unset when the name already existed, so
		// always read the row back.
		err = tx.
			NewSelect().
			Model(tag).
			Where("t.name = ?", name).
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		vt := &models.VideoTag{
			VideoID: videoID,
			TagID:   tag.ID,
		}
		_, err = tx.
			NewInsert().
			Model(vt).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}
