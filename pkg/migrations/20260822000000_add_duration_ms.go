package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(ctx context.Context, db *bun.DB) error {
		return addColumn(ctx, db, `ALTER TABLE videos ADD COLUMN duration_ms INTEGER`)
	}

	down := func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `ALTER TABLE videos DROP COLUMN duration_ms`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
