package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded closure computation.
type Run struct {
	ID              string        `json:"id"`
	Pass            string        `json:"pass"` // 'api' | 'impl'
	ModelPath       string        `json:"modelPath"`
	OutputPath      string        `json:"outputPath"`
	CatalogDigest   string        `json:"catalogDigest"`
	Profile         string        `json:"profile,omitempty"`
	Assemblies      int           `json:"assemblies"`
	Types           int           `json:"types"`
	Members         int           `json:"members"`
	Forwarders      int           `json:"forwarders"`
	Iterations      int           `json:"iterations"`
	Hidden          int           `json:"hidden"`
	Unconstructible []string      `json:"unconstructible,omitempty"`
	Duration        time.Duration `json:"duration"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// RunRepository reads and writes the runs table.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Record stores run. An empty ID is filled with a new UUID and a zero
// CreatedAt with the current time; the stored ID is returned.
func (r *RunRepository) Record(ctx context.Context, run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	unconstructible := run.Unconstructible
	if unconstructible == nil {
		unconstructible = []string{}
	}
	list, err := json.Marshal(unconstructible)
	if err != nil {
		return "", fmt.Errorf("failed to encode unconstructible types: %w", err)
	}

	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (
				id, pass, model_path, output_path, catalog_digest, profile,
				assemblies, types, members, forwarders,
				iterations, hidden, unconstructible, duration_ms, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, run.Pass, run.ModelPath, nullString(run.OutputPath), run.CatalogDigest, nullString(run.Profile),
			run.Assemblies, run.Types, run.Members, run.Forwarders,
			run.Iterations, run.Hidden, string(list), run.Duration.Milliseconds(),
			run.CreatedAt.UTC().Format(timeLayout),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	r.db.logger.Debug("Run recorded", "id", run.ID, "pass", run.Pass)
	return run.ID, nil
}

// timeLayout has fixed-width fractions so that created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `
	id, pass, model_path, output_path, catalog_digest, profile,
	assemblies, types, members, forwarders,
	iterations, hidden, unconstructible, duration_ms, created_at`

// Get retrieves a run by ID. It returns nil, nil when the run does not exist.
func (r *RunRepository) Get(ctx context.Context, id string) (*Run, error) {
	row := r.db.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// List returns the most recent runs first. limit <= 0 means no limit.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Prune deletes runs created before cutoff and returns how many were removed.
func (r *RunRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.conn.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var output, profile sql.NullString
	var list, createdAt string
	var durationMs int64

	err := s.Scan(
		&run.ID, &run.Pass, &run.ModelPath, &output, &run.CatalogDigest, &profile,
		&run.Assemblies, &run.Types, &run.Members, &run.Forwarders,
		&run.Iterations, &run.Hidden, &list, &durationMs, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	run.OutputPath = output.String
	run.Profile = profile.String
	run.Duration = time.Duration(durationMs) * time.Millisecond
	if err := json.Unmarshal([]byte(list), &run.Unconstructible); err != nil {
		return nil, fmt.Errorf("invalid unconstructible list for run %s: %w", run.ID, err)
	}
	if run.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at for run %s: %w", run.ID, err)
	}
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
