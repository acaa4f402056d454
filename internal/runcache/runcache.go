// Package runcache is a driver-level optimization, never touched by the
// core: it remembers, per feature file, the content hash of the last
// successful generation so repeated `weft generate` runs can skip unchanged
// files. Schema and migration style follow chriserin-ft's internal/db —
// a schema_version table gating a list of forward-only migrations — backed
// by the pure-Go modernc.org/sqlite driver instead of a cgo one.
package runcache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "modernc.org/sqlite"
)

var migrations = []string{
	`CREATE TABLE generations (
		file_path   TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
	)`,
}

// Cache wraps a sqlite-backed store of (feature file path -> content hash).
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// applies any pending migrations.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run cache %s: %w", path, err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Hash returns the content hash runcache uses to detect unchanged features.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// IsUnchanged reports whether filePath was last generated from exactly
// contentHash.
func (c *Cache) IsUnchanged(filePath, contentHash string) (bool, error) {
	var stored string
	err := c.db.QueryRow(`SELECT content_hash FROM generations WHERE file_path = ?`, filePath).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading run cache entry for %s: %w", filePath, err)
	}
	return stored == contentHash, nil
}

// Record upserts the content hash recorded for filePath after a successful
// generation.
func (c *Cache) Record(filePath, contentHash string) error {
	_, err := c.db.Exec(`
		INSERT INTO generations (file_path, content_hash, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`, filePath, contentHash)
	if err != nil {
		return fmt.Errorf("recording run cache entry for %s: %w", filePath, err)
	}
	return nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return fmt.Errorf("checking schema_version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("initializing schema version: %w", err)
		}
	}

	var current int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := tx.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("updating schema version to %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}

	return nil
}
