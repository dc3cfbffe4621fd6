package storage

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationManager runs the embedded history schema against one database file.
type MigrationManager struct {
	m *migrate.Migrate
}

// NewMigrationManager opens the history database at dbPath for migration.
func NewMigrationManager(dbPath string) (*MigrationManager, error) {
	schema, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded schema: %w", err)
	}
	source, err := iofs.New(schema, ".")
	if err != nil {
		return nil, fmt.Errorf("read embedded schema: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, sqliteURL(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open %s for migration: %w", dbPath, err)
	}
	return &MigrationManager{m: m}, nil
}

// sqliteURL turns a file path into a sqlite:// URL. Windows paths use forward
// slashes and absolute ones gain a leading slash.
func sqliteURL(path string) string {
	u := filepath.ToSlash(path)
	if filepath.IsAbs(path) && u[0] != '/' {
		u = "/" + u
	}
	return "sqlite://" + u
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (mm *MigrationManager) Up() error {
	if err := mm.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Down reverts the newest applied migration only.
func (mm *MigrationManager) Down() error {
	if err := mm.m.Steps(-1); err != nil {
		return fmt.Errorf("revert migration: %w", err)
	}
	return nil
}

// Version reports the applied schema version; zero means none applied.
func (mm *MigrationManager) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mm.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the schema source and the database handle.
func (mm *MigrationManager) Close() error {
	srcErr, dbErr := mm.m.Close()
	return errors.Join(srcErr, dbErr)
}
