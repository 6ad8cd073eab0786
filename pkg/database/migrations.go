package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrator applies the schema migrations of the configured driver
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

// RunMigrations applies every pending migration. An empty dir uses the
// migrations compiled into the binary.
func (m *Migrator) RunMigrations(ctx context.Context, dir string) error {
	dialect, err := m.dialect()
	if err != nil {
		return err
	}

	fsys, err := m.source(dir)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, m.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	m.logger.Info("Starting database migrations", zap.String("driver", m.db.Driver), zap.String("dir", dir))

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		m.logger.Info("Applied migration",
			zap.Int64("version", r.Source.Version),
			zap.String("path", r.Source.Path),
			zap.Duration("duration", r.Duration))
	}

	m.logger.Info("Database migrations completed successfully", zap.Int("applied", len(results)))
	return nil
}

func (m *Migrator) dialect() (goose.Dialect, error) {
	switch m.db.Driver {
	case DriverSQLite:
		return goose.DialectSQLite3, nil
	case DriverPostgres:
		return goose.DialectPostgres, nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", m.db.Driver)
	}
}

func (m *Migrator) source(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	sub, err := fs.Sub(migrationsFS, "migrations/"+m.db.Driver)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	return sub, nil
}
