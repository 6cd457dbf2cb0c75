package db

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql migrations_sqlite/*.sql
var migrationFiles embed.FS

// RunMigrations applies embedded Postgres migrations via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	return run(ctx, database, "postgres", "migrations")
}

// RunSQLiteMigrations applies the embedded SQLite migrations.
func RunSQLiteMigrations(ctx context.Context, database *sql.DB) error {
	return run(ctx, database, "sqlite3", "migrations_sqlite")
}

func run(ctx context.Context, database *sql.DB, dialect, dir string) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, dir)
}
