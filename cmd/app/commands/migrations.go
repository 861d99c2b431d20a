package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrationsDirs maps a database driver to its directory under the migrations root.
var migrationsDirs = map[string]string{
	"postgres": "postgresql",
	"mysql":    "mysql",
}

// RunMigrations migrates the file API schema found under root. Zero steps applies every
// pending migration, a positive count applies that many and a negative count rolls back.
func RunMigrations(logger *slog.Logger, driver, connectionString, root string, steps int) error {
	dir, ok := migrationsDirs[driver]
	if !ok {
		return fmt.Errorf("unsupported database driver: %s", driver)
	}
	source := "file://" + filepath.ToSlash(filepath.Join(root, dir))

	logger.Info("running database migrations",
		slog.String("driver", driver),
		slog.String("source", source),
		slog.Int("steps", steps),
	)

	m, err := migrate.New(source, connectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("migrations completed", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}
