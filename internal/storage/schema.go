package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations[i] takes the schema from version i to i+1.
var migrations = []func(*sql.Tx) error{
	createRunsTable,
}

// currentSchemaVersion is the version a fresh database is created at.
var currentSchemaVersion = len(migrations)

// migrate brings the database up to currentSchemaVersion in one
// transaction. A database from a newer thinner is rejected.
func (db *DB) migrate() error {
	return db.WithTx(context.Background(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
			return err
		}

		version, err := schemaVersion(tx)
		if err != nil {
			return err
		}
		switch {
		case version == currentSchemaVersion:
			db.logger.Debug("Database schema is up to date", "version", version)
			return nil
		case version > currentSchemaVersion:
			return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
		}

		for v := version; v < currentSchemaVersion; v++ {
			if err := migrations[v](tx); err != nil {
				return fmt.Errorf("migration to version %d: %w", v+1, err)
			}
		}
		db.logger.Info("Database schema migrated", "from_version", version, "to_version", currentSchemaVersion)

		if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
			return err
		}
		_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion)
		return err
	})
}

func schemaVersion(tx *sql.Tx) (int, error) {
	var version int
	err := tx.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return version, err
}

// createRunsTable creates the closure run history. unconstructible holds a
// JSON array of "Assembly Type" names.
func createRunsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			pass TEXT NOT NULL CHECK(pass IN ('api', 'impl')),
			model_path TEXT NOT NULL,
			output_path TEXT,
			catalog_digest TEXT NOT NULL,
			profile TEXT,
			assemblies INTEGER NOT NULL DEFAULT 0,
			types INTEGER NOT NULL DEFAULT 0,
			members INTEGER NOT NULL DEFAULT 0,
			forwarders INTEGER NOT NULL DEFAULT 0,
			iterations INTEGER NOT NULL DEFAULT 0,
			hidden INTEGER NOT NULL DEFAULT 0,
			unconstructible TEXT NOT NULL DEFAULT '[]',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`)
	return err
}
