package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Run is one recorded generation.
type Run struct {
	ID               string `json:"id"`
	Seq              int64  `json:"seq"`
	ModelPath        string `json:"model_path"`
	ModelHash        string `json:"model_hash"`
	Prefix           string `json:"prefix"`
	SourceHash       string `json:"source_hash"`
	HeaderHash       string `json:"header_hash,omitempty"`
	Blocks           int    `json:"blocks"`
	Operations       int    `json:"ops"`
	Delays           int    `json:"delays"`
	GeneratorVersion string `json:"generator_version"`
	RecordVersion    string `json:"record_version"`
}

// RecordRun appends a run, assigning its id (when empty) and the next seq.
// Returns the stored run.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = s.newID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, model_path, model_hash, prefix, source_hash, header_hash,
		 blocks, ops, delays, generator_version, record_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.ModelPath,
		run.ModelHash,
		run.Prefix,
		run.SourceHash,
		run.HeaderHash,
		run.Blocks,
		run.Operations,
		run.Delays,
		run.GeneratorVersion,
		run.RecordVersion,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

const selectRuns = `
	SELECT id, seq, model_path, model_hash, prefix, source_hash, header_hash,
	       blocks, ops, delays, generator_version, record_version
	FROM runs
`

// ListRuns returns every recorded run in seq order.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRuns+`ORDER BY seq ASC, id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return scanRuns(rows)
}

// RunsForModel returns the runs whose model records hashed to modelHash.
func (s *Store) RunsForModel(ctx context.Context, modelHash string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		selectRuns+`WHERE model_hash = ? ORDER BY seq ASC, id COLLATE BINARY ASC`, modelHash)
	if err != nil {
		return nil, fmt.Errorf("runs for model: %w", err)
	}
	return scanRuns(rows)
}

// LatestRun returns the most recent run for modelHash, or nil when none exists.
func (s *Store) LatestRun(ctx context.Context, modelHash string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		selectRuns+`WHERE model_hash = ? ORDER BY seq DESC LIMIT 1`, modelHash)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	err := sc.Scan(
		&r.ID, &r.Seq, &r.ModelPath, &r.ModelHash, &r.Prefix, &r.SourceHash, &r.HeaderHash,
		&r.Blocks, &r.Operations, &r.Delays, &r.GeneratorVersion, &r.RecordVersion,
	)
	return r, err
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
