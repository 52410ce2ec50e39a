package tags

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/clipshelf/clipshelf/pkg/errcodes"
	"github.com/clipshelf/clipshelf/pkg/migrations"
	"github.com/clipshelf/clipshelf/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// A second pool connection would see a fresh empty database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	db.RegisterModel((*models.VideoTag)(nil))

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func insertVideoWithTag(t *testing.T, db *bun.DB, title string, tag *models.Tag) *models.Video {
	t.Helper()
	ctx := context.Background()

	video := &models.Video{Title: title, VideoFile: title + ".mp4"}
	_, err := db.NewInsert().Model(video).Returning("*").Exec(ctx)
	require.NoError(t, err)

	if tag != nil {
		vt := &models.VideoTag{VideoID: video.ID, TagID: tag.ID}
		_, err = db.NewInsert().Model(vt).Exec(ctx)
		require.NoError(t, err)
	}

	return video
}

func TestFindOrCreateTag(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	tag, err := svc.FindOrCreateTag(ctx, " news ")
	require.NoError(t, err)
	assert.Equal(t, "news", tag.Name)
	require.NotZero(t, tag.ID)

	// Re-adding the same name returns the existing row.
	again, err := svc.FindOrCreateTag(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, again.ID)

	_, err = svc.FindOrCreateTag(ctx, "   ")
	require.Error(t, err)
	var e *errcodes.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusUnprocessableEntity, e.HTTPCode)
}

func TestFindOrCreateTag_CaseSensitive(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	lower, err := svc.FindOrCreateTag(ctx, "tag1")
	require.NoError(t, err)
	upper, err := svc.FindOrCreateTag(ctx, "Tag1")
	require.NoError(t, err)

	// "Tag1" and "tag1" are distinct tags.
	assert.NotEqual(t, lower.ID, upper.ID)

	names, err := svc.ListTagNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tag1", "tag1"}, names)
}

func TestRetrieveTag_NotFound(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)

	id := 999
	_, err := svc.RetrieveTag(context.Background(), RetrieveTagOptions{ID: &id})
	require.Error(t, err)

	var e *errcodes.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusNotFound, e.HTTPCode)
}

func TestListTags_VideoCounts(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	news, err := svc.FindOrCreateTag(ctx, "news")
	require.NoError(t, err)
	sports, err := svc.FindOrCreateTag(ctx, "sports")
	require.NoError(t, err)

	insertVideoWithTag(t, db, "first", news)
	insertVideoWithTag(t, db, "second", news)
	insertVideoWithTag(t, db, "third", nil)

	all, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "news", all[0].Name)
	assert.Equal(t, 2, all[0].VideoCount)
	assert.Equal(t, "sports", all[1].Name)
	assert.Equal(t, 0, all[1].VideoCount)

	count, err := svc.GetVideoCount(ctx, news.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	count, err = svc.GetVideoCount(ctx, sports.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestListTagNamesForVideo(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	zebra, err := svc.FindOrCreateTag(ctx, "zebra")
	require.NoError(t, err)
	alpha, err := svc.FindOrCreateTag(ctx, "alpha")
	require.NoError(t, err)

	video := insertVideoWithTag(t, db, "clip", zebra)
	vt := &models.VideoTag{VideoID: video.ID, TagID: alpha.ID}
	_, err = db.NewInsert().Model(vt).Exec(ctx)
	require.NoError(t, err)

	other := insertVideoWithTag(t, db, "other", nil)

	names, err := svc.ListTagNamesForVideo(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zebra"}, names)

	names, err = svc.ListTagNamesForVideo(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, names)
}

func TestGetVideos_NewestFirst(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	news, err := svc.FindOrCreateTag(ctx, "news")
	require.NoError(t, err)

	first := insertVideoWithTag(t, db, "first", news)
	second := insertVideoWithTag(t, db, "second", news)

	videos, err := svc.GetVideos(ctx, news.ID)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, second.ID, videos[0].ID)
	assert.Equal(t, first.ID, videos[1].ID)
}
