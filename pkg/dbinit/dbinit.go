// Package dbinit opens the console preference database and applies the
// embedded migrations.
package dbinit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/amacneil/dbmate/v2/pkg/dbmate"
	_ "github.com/amacneil/dbmate/v2/pkg/driver/postgres" // PostgreSQL driver for dbmate
	_ "github.com/lib/pq"                                 // PostgreSQL driver
)

//go:embed migrations
var migrations embed.FS

// Open migrates the database at databaseURL, creating it if needed, and
// returns a tested connection.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*sql.DB, error) {
	parsedURL, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}

	logger.Info("Initializing preference database", slog.String("host", parsedURL.Host))

	if err := migrate(parsedURL, logger); err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Error("Failed to close database connection", slog.String("error", closeErr.Error()))
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Preference database ready")
	return sqlDB, nil
}

// migrate configures dbmate on the embedded migrations and applies them.
func migrate(parsedURL *url.URL, logger *slog.Logger) error {
	db := dbmate.New(parsedURL)
	db.AutoDumpSchema = false
	db.MigrationsDir = []string{"."}

	migrationFS, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration filesystem: %w", err)
	}
	db.FS = migrationFS

	names, err := migrationNames()
	if err != nil {
		return err
	}
	logger.Info("Found migrations", slog.Int("count", len(names)))
	for _, name := range names {
		logger.Debug("Migration file", slog.String("name", name))
	}

	if err := db.CreateAndMigrate(); err != nil {
		return fmt.Errorf("failed to create and migrate database: %w", err)
	}
	return nil
}

// migrationNames lists the embedded .sql migrations in apply order.
func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration files: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
