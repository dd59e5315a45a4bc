package store

import (
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// Migrate creates the sweep history tables if they do not exist
func Migrate(db *sql.DB) error {
	schema := []string{
		// sweeps: one row per experiment run
		`CREATE TABLE IF NOT EXISTS sweeps (
			id TEXT PRIMARY KEY,
			experiment TEXT NOT NULL,
			seed INTEGER NOT NULL,
			rows INTEGER NOT NULL,
			features INTEGER NOT NULL,
			submission_path TEXT NOT NULL DEFAULT '',
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		// model_results: the sweep outcome of each configured model
		`CREATE TABLE IF NOT EXISTS model_results (
			sweep_id TEXT NOT NULL REFERENCES sweeps(id) ON DELETE CASCADE,
			model TEXT NOT NULL,
			family TEXT NOT NULL,
			objective TEXT NOT NULL,
			search TEXT NOT NULL,
			floor REAL,
			found INTEGER NOT NULL,
			best_params TEXT,
			best_score REAL NOT NULL,
			evaluations INTEGER NOT NULL,
			split_metrics TEXT,
			duration_ms INTEGER NOT NULL,
			PRIMARY KEY (sweep_id, model)
		);`,
		// trials: every evaluated combination
		`CREATE TABLE IF NOT EXISTS trials (
			id TEXT PRIMARY KEY,
			sweep_id TEXT NOT NULL REFERENCES sweeps(id) ON DELETE CASCADE,
			model TEXT NOT NULL,
			idx INTEGER NOT NULL,
			params TEXT NOT NULL,
			score REAL NOT NULL,
			improved INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS trials_sweep_model_idx ON trials(sweep_id, model, idx);`,
		`CREATE INDEX IF NOT EXISTS sweeps_started_idx ON sweeps(started_at);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration statement: %w", err)
		}
	}

	return nil
}
