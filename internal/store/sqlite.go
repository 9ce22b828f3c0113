// Package store keeps vector-index chunks in a local SQLite file.
//
// Several runs may ingest into the same file at once, so the database is
// opened in WAL mode with a busy timeout. The schema version is tracked in
// PRAGMA user_version.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/soyeahso/docent/internal/logging"
)

const memoryPath = ":memory:"

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	// chunks cascade when their index row goes
	"PRAGMA foreign_keys=ON",
}

// DB is an open chunk database.
type DB struct {
	sql *sql.DB
	log *logging.Logger
}

// Open opens the chunk database at path, creating its directory and schema
// as needed. ":memory:" gives a private database that lives until Close.
func Open(path string, log *logging.Logger) (*DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if path == memoryPath {
		// each pooled connection would get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	db := &DB{sql: sqlDB, log: log.Sub("store")}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating chunk schema: %w", err)
	}
	db.log.Debug().Str("path", path).Msg("chunk database ready")
	return db, nil
}

// Close releases the database.
func (db *DB) Close() error {
	return db.sql.Close()
}

func (db *DB) schemaVersion() (int, error) {
	var v int
	err := db.sql.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}

// migrate applies every migration newer than the stored schema version, each
// in its own transaction.
func (db *DB) migrate() error {
	current, err := db.schemaVersion()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		db.log.Info().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
		if err := db.apply(m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

func (db *DB) apply(m migration) error {
	tx, err := db.sql.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return err
	}
	// PRAGMA takes no bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return err
	}
	return tx.Commit()
}
