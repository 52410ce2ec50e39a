package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE videos (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				video_file TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.ExecContext(ctx, `CREATE INDEX ix_videos_created_at ON videos (created_at)`)
		if err != nil {
			return errors.WithStack(err)
		}
		// Tag names are case-sensitive, so no COLLATE NOCASE here. The length
		// check mirrors the API validator.
		_, err = db.ExecContext(ctx, `
			CREATE TABLE tags (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL CHECK (length(name) <= 300)
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.ExecContext(ctx, `CREATE UNIQUE INDEX ux_tags_name ON tags (name)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.ExecContext(ctx, `
			CREATE TABLE video_tags (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				video_id INTEGER REFERENCES videos (id) NOT NULL,
				tag_id INTEGER REFERENCES tags (id) NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.ExecContext(ctx, `CREATE UNIQUE INDEX ux_video_tags_video_id_tag_id ON video_tags (video_id, tag_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.ExecContext(ctx, `CREATE INDEX ix_video_tags_video_id ON video_tags (video_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.ExecContext(ctx, `CREATE INDEX ix_video_tags_tag_id ON video_tags (tag_id)`)
		return errors.WithStack(err)
	}

	down := func(ctx context.Context, db *bun.DB) error {
		for _, table := range []string{"video_tags", "tags", "videos"} {
			_, err := db.ExecContext(ctx, "DROP TABLE "+table)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
