package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KevinKickass/donp/internal/protocol"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrRunNotFound = errors.New("storage: run not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS protocol_runs (
	id          UUID PRIMARY KEY,
	definition  TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL,
	iterations  INTEGER NOT NULL,
	attempted   INTEGER NOT NULL,
	succeeded   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS transaction_results (
	id         BIGSERIAL PRIMARY KEY,
	run_id     UUID NOT NULL REFERENCES protocol_runs(id) ON DELETE CASCADE,
	iteration  INTEGER NOT NULL,
	device     TEXT NOT NULL,
	message    TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	tx         TEXT NOT NULL DEFAULT '',
	rx         TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transaction_results_run_id ON transaction_results(run_id);
`

func (p *PostgresClient) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun stores a run report and all of its transaction results in one
// database transaction.
func (p *PostgresClient) SaveRun(ctx context.Context, definition string, report *protocol.Report) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	run := NewProtocolRun(definition, report)
	_, err = tx.Exec(ctx, `
		INSERT INTO protocol_runs (id, definition, started_at, duration_ms, iterations, attempted, succeeded, failed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.ID, run.Definition, run.StartedAt, run.DurationMS, run.Iterations, run.Attempted, run.Succeeded, run.Failed)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(report.Results) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"transaction_results"},
			transactionColumns,
			pgx.CopyFromRows(transactionRows(report)))
		if err != nil {
			return fmt.Errorf("failed to insert transaction results: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListRuns returns the most recent runs, newest first.
func (p *PostgresClient) ListRuns(ctx context.Context, limit int) ([]ProtocolRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+strings.Join(runColumns, ", ")+`
		FROM protocol_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[ProtocolRun])
	if err != nil {
		return nil, fmt.Errorf("failed to scan runs: %w", err)
	}
	return runs, nil
}

// RunResults returns the transaction results of one run in execution order.
func (p *PostgresClient) RunResults(ctx context.Context, runID uuid.UUID) ([]TransactionRecord, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM protocol_runs WHERE id = $1)`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+strings.Join(transactionColumns, ", ")+`
		FROM transaction_results
		WHERE run_id = $1
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[TransactionRecord])
	if err != nil {
		return nil, fmt.Errorf("failed to scan results: %w", err)
	}
	return records, nil
}
