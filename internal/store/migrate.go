package store

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetDialect("postgres")
	goose.SetTableName("schema_migrations")
	return goose.UpContext(ctx, db, "migrations")
}
