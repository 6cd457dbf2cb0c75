package main

// Run database migrations:
//   go run ./cmd/migrate
//
// SESSION_STORE=sqlite migrates the SQLite file at SQLITE_PATH instead.

import (
	"context"
	"log"
	"os"

	"skincare-backend/internal/shared/config"
	"skincare-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.SessionStore == "sqlite" {
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			log.Printf("failed to migrate sqlite: %v", err)
			os.Exit(1)
		}
		_ = conn.Close()
		log.Printf("sqlite migrations applied to %s", cfg.SQLitePath)
		return
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
}
