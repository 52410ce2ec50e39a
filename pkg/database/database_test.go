package database

import (
	"context"
	"database/sql/driver"
	"path/filepath"
	"testing"
	"time"

	"github.com/clipshelf/clipshelf/pkg/config"
	"github.com/clipshelf/clipshelf/pkg/migrations"
	"github.com/clipshelf/clipshelf/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		DatabaseBusyTimeout:       time.Second,
		DatabaseConnectRetryCount: 2,
		DatabaseConnectRetryDelay: 10 * time.Millisecond,
		DatabaseFilePath:          filepath.Join(t.TempDir(), "test.db"),
		DatabaseMaxRetries:        3,
	}
}

// New must produce a working handle with either sqliteshim backend: the
// transpiled driver exposes OpenConnector, the cgo one goes through the
// driverConnector fallback.
func TestNew(t *testing.T) {
	t.Parallel()

	db, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestNew_RegistersJoinModel(t *testing.T) {
	t.Parallel()

	db, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	ctx := context.Background()
	_, err = migrations.BringUpToDate(ctx, db)
	require.NoError(t, err)

	video := &models.Video{Title: "clip", VideoFile: "clip.mp4"}
	_, err = db.NewInsert().Model(video).Returning("*").Exec(ctx)
	require.NoError(t, err)

	tag := &models.Tag{Name: "news"}
	_, err = db.NewInsert().Model(tag).Returning("*").Exec(ctx)
	require.NoError(t, err)

	vt := &models.VideoTag{VideoID: video.ID, TagID: tag.ID}
	_, err = db.NewInsert().Model(vt).Exec(ctx)
	require.NoError(t, err)

	// An m2m relation query only works when New registered the join model.
	got := &models.Video{}
	err = db.NewSelect().
		Model(got).
		Relation("Tags", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("t.name ASC")
		}).
		Where("v.id = ?", video.ID).
		Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"news"}, got.TagNames())
}

type stubDriver struct {
	dsn     string
	openErr error
}

func (d *stubDriver) Open(name string) (driver.Conn, error) {
	d.dsn = name
	return nil, d.openErr
}

func TestDriverConnector(t *testing.T) {
	t.Parallel()

	openErr := errors.New("open failed")
	drv := &stubDriver{openErr: openErr}
	dc := newDriverConnector(drv, "file.db")

	assert.Equal(t, drv, dc.Driver())

	// Connect delegates straight to the wrapped driver's Open with the DSN.
	_, err := dc.Connect(context.Background())
	require.ErrorIs(t, err, openErr)
	assert.Equal(t, "file.db", drv.dsn)
}
