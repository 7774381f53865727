// Package sqlite implements the local publication store on an embedded
// relational database. The schema is managed with versioned migrations that
// run on every open; migration is idempotent.
package sqlite

import (
	"database/sql"
	"embed"
	goerrors "errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/patentbase-io/patentbase/internal/config"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store owns the database handle. Writers serialize above this layer; the
// handle itself allows concurrent readers under WAL.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (creating if needed) the database file, applies the session
// pragmas and runs all pending migrations.
func Open(cfg config.StoreConfig, logger logging.Logger) (*Store, error) {
	if cfg.DatabasePath == "" {
		return nil, errors.New(errors.CodeConfiguration, "store.database_path is empty")
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLocalStore, "open database")
	}

	busyMillis := cfg.BusyTimeout.Milliseconds()
	if busyMillis <= 0 {
		busyMillis = 5000
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyMillis),
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrap(err, errors.CodeLocalStore, pragma)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("local store ready", logging.String("path", cfg.DatabasePath))
	return s, nil
}

func (s *Store) migrate() error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return errors.Wrap(err, errors.CodeLocalStore, "load migrations")
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return errors.Wrap(err, errors.CodeLocalStore, "migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return errors.Wrap(err, errors.CodeLocalStore, "migration instance")
	}

	if err := m.Up(); err != nil && !goerrors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, errors.CodeLocalStore, "apply migrations")
	}
	return nil
}

// DB exposes the underlying handle for repositories.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping verifies the database file is still reachable.
func (s *Store) Ping() error {
	if err := s.db.Ping(); err != nil {
		return errors.Wrap(err, errors.CodeLocalStore, "ping")
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
