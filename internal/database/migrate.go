package database

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/nordwell/studio-api/internal/database/migrations"
)

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("mysql"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
