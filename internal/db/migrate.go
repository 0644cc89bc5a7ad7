package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the timetable schema up to the newest embedded migration and
// logs the version before and after. A dirty schema is reported with the
// version that needs a manual fix.
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate new: %w", err)
	}
	defer m.Close()
	m.Log = migrateLogger{log: slog.Default().With("component", "migrate")}

	from := schemaVersion(m)
	err = m.Up()
	var dirty migrate.ErrDirty
	switch {
	case errors.As(err, &dirty):
		return fmt.Errorf("migrate up: schema is dirty at version %d, fix it and force the version", dirty.Version)
	case err != nil && !errors.Is(err, migrate.ErrNoChange):
		return fmt.Errorf("migrate up: %w", err)
	}

	slog.Info("schema ready", "from_version", from, "version", schemaVersion(m), "changed", err == nil)
	return nil
}

// schemaVersion returns 0 for an empty database.
func schemaVersion(m *migrate.Migrate) uint {
	v, _, err := m.Version()
	if err != nil {
		return 0
	}
	return v
}

// migrateLogger routes golang-migrate's progress lines to slog at debug level.
type migrateLogger struct {
	log *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool { return false }
