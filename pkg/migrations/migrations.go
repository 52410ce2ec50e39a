package migrations

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

func BringUpToDate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, Migrations)
	err := migrator.Init(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return group, nil
}

// addColumn runs an ALTER TABLE ... ADD COLUMN and treats "duplicate column
// name" as success, so additive migrations can be re-applied against
// databases that already carry the column.
func addColumn(ctx context.Context, db *bun.DB, query string) error {
	_, err := db.ExecContext(ctx, query)
	if err != nil && !strings.Contains(err.Error(), "duplicate column name") {
		return errors.WithStack(err)
	}
	return nil
}
