// Package store keeps a history of finished sweeps in a libsql database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/GoSim-25-26J-441/hpsweep/internal/experiment"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/logger"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/models"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/utils"
)

// ErrSweepNotFound is returned for an unknown sweep ID
var ErrSweepNotFound = errors.New("store: sweep not found")

// Store persists experiment reports
type Store struct {
	db *sql.DB
}

// SweepRecord is one persisted sweep with its model outcomes
type SweepRecord struct {
	ID             string
	Experiment     string
	Seed           int64
	Rows           int
	Features       int
	SubmissionPath string
	StartedAt      time.Time
	Duration       time.Duration
	Models         []models.ModelSummary
}

type splitMetrics struct {
	Train      *models.SplitMetrics `json:"train,omitempty"`
	Validation *models.SplitMetrics `json:"validation,omitempty"`
	Test       *models.SplitMetrics `json:"test,omitempty"`
}

// Open opens (creating if needed) the database at path and migrates it.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = "file:" + path
	}
	logger.Debug("opening history database", "path", path)

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an already migrated database
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport writes a report, its model outcomes and every trial in one
// transaction. Saving the same sweep ID again replaces it.
func (s *Store) SaveReport(ctx context.Context, r *experiment.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM trials WHERE sweep_id = ?`,
		`DELETE FROM model_results WHERE sweep_id = ?`,
		`DELETE FROM sweeps WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, r.SweepID); err != nil {
			return fmt.Errorf("failed to replace sweep %s: %w", r.SweepID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sweeps (id, experiment, seed, rows, features, submission_path, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SweepID, r.Experiment, r.Seed, r.Rows, len(r.Features), r.SubmissionPath,
		r.StartedAt.UnixMilli(), r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sweep: %w", err)
	}

	for _, m := range r.Models {
		summary := m.Summary(true)
		if err := insertModel(ctx, tx, r.SweepID, summary); err != nil {
			return err
		}
		for _, t := range summary.Trials {
			params, err := json.Marshal(t.Params)
			if err != nil {
				return fmt.Errorf("failed to encode trial params: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO trials (id, sweep_id, model, idx, params, score, improved, duration_ms)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				utils.GenerateTrialID(r.SweepID, m.Name, t.Index), r.SweepID, m.Name, t.Index,
				string(params), t.Score, boolToInt(t.Improved), t.DurationMs,
			)
			if err != nil {
				return fmt.Errorf("failed to insert trial: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sweep: %w", err)
	}
	return nil
}

func insertModel(ctx context.Context, tx *sql.Tx, sweepID string, m models.ModelSummary) error {
	var params []byte
	if m.Found {
		var err error
		if params, err = json.Marshal(m.BestParams); err != nil {
			return fmt.Errorf("failed to encode best params: %w", err)
		}
	}
	split, err := json.Marshal(splitMetrics{Train: m.Train, Validation: m.Validation, Test: m.Test})
	if err != nil {
		return fmt.Errorf("failed to encode split metrics: %w", err)
	}

	var floor sql.NullFloat64
	if m.Floor != nil {
		floor = sql.NullFloat64{Float64: *m.Floor, Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO model_results (sweep_id, model, family, objective, search, floor, found,
		   best_params, best_score, evaluations, split_metrics, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sweepID, m.Model, m.Family, m.Objective, m.Search, floor, boolToInt(m.Found),
		nullString(params), m.BestScore, m.Evaluations, string(split), m.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert model result: %w", err)
	}
	return nil
}

// ListSweeps returns the most recent sweeps first. limit <= 0 means no limit.
func (s *Store) ListSweeps(ctx context.Context, limit int) ([]SweepRecord, error) {
	query := `SELECT id, experiment, seed, rows, features, submission_path, started_at, duration_ms
		FROM sweeps ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweeps: %w", err)
	}
	var sweeps []SweepRecord
	for rows.Next() {
		var rec SweepRecord
		var startedMs, durationMs int64
		if err := rows.Scan(&rec.ID, &rec.Experiment, &rec.Seed, &rec.Rows, &rec.Features,
			&rec.SubmissionPath, &startedMs, &durationMs); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan sweep: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedMs)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		sweeps = append(sweeps, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range sweeps {
		if sweeps[i].Models, err = s.Models(ctx, sweeps[i].ID); err != nil {
			return nil, err
		}
	}
	return sweeps, nil
}

// Sweep returns one persisted sweep
func (s *Store) Sweep(ctx context.Context, id string) (*SweepRecord, error) {
	var rec SweepRecord
	var startedMs, durationMs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, experiment, seed, rows, features, submission_path, started_at, duration_ms
		 FROM sweeps WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Experiment, &rec.Seed, &rec.Rows, &rec.Features, &rec.SubmissionPath, &startedMs, &durationMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSweepNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sweep: %w", err)
	}
	rec.StartedAt = time.UnixMilli(startedMs)
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	if rec.Models, err = s.Models(ctx, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Models returns the model outcomes of a sweep, without trials
func (s *Store) Models(ctx context.Context, sweepID string) ([]models.ModelSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model, family, objective, search, floor, found, best_params, best_score,
		   evaluations, split_metrics, duration_ms
		 FROM model_results WHERE sweep_id = ? ORDER BY rowid`, sweepID)
	if err != nil {
		return nil, fmt.Errorf("failed to query model results: %w", err)
	}
	defer rows.Close()

	var out []models.ModelSummary
	for rows.Next() {
		var m models.ModelSummary
		var floor sql.NullFloat64
		var found int
		var params, split sql.NullString
		if err := rows.Scan(&m.Model, &m.Family, &m.Objective, &m.Search, &floor, &found, &params,
			&m.BestScore, &m.Evaluations, &split, &m.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan model result: %w", err)
		}
		m.Found = found != 0
		if floor.Valid {
			f := floor.Float64
			m.Floor = &f
		}
		if params.Valid {
			if err := json.Unmarshal([]byte(params.String), &m.BestParams); err != nil {
				return nil, fmt.Errorf("failed to decode best params: %w", err)
			}
		}
		if split.Valid {
			var sm splitMetrics
			if err := json.Unmarshal([]byte(split.String), &sm); err != nil {
				return nil, fmt.Errorf("failed to decode split metrics: %w", err)
			}
			m.Train, m.Validation, m.Test = sm.Train, sm.Validation, sm.Test
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Trials returns the trials of one model of a sweep in evaluation order.
// Numeric parameters come back as float64.
func (s *Store) Trials(ctx context.Context, sweepID, model string) ([]models.TrialRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, params, score, improved, duration_ms FROM trials
		 WHERE sweep_id = ? AND model = ? ORDER BY idx`, sweepID, model)
	if err != nil {
		return nil, fmt.Errorf("failed to query trials: %w", err)
	}
	defer rows.Close()

	var out []models.TrialRecord
	for rows.Next() {
		var t models.TrialRecord
		var params string
		var improved int
		if err := rows.Scan(&t.Index, &params, &t.Score, &improved, &t.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan trial: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &t.Params); err != nil {
			return nil, fmt.Errorf("failed to decode trial params: %w", err)
		}
		t.Improved = improved != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(b []byte) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

var _ experiment.Recorder = (*Store)(nil)
