package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/postgres"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS sentiment_runs (
    id          UUID PRIMARY KEY,
    summary     JSONB NOT NULL,
    accuracy    DOUBLE PRECISION NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
)`

const createRunsIndex = `
CREATE INDEX IF NOT EXISTS sentiment_runs_finished_at_idx
    ON sentiment_runs (finished_at DESC)`

// PostgresStore keeps the history of pipeline runs in the sentiment_runs
// table.
type PostgresStore struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewPostgresStore creates a run history store.
func NewPostgresStore(db *postgres.Client) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: slog.Default().With("component", "run-store"),
	}
}

func (s *PostgresStore) Name() string { return "postgres" }

// EnsureSchema creates the runs table and its index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, createRunsTable); err != nil {
			return fmt.Errorf("creating sentiment_runs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, createRunsIndex); err != nil {
			return fmt.Errorf("creating sentiment_runs index: %w", err)
		}
		return nil
	})
}

// Publish saves the summary.
func (s *PostgresStore) Publish(ctx context.Context, sum Summary) error {
	return s.Save(ctx, sum)
}

// Save inserts the summary. Saving the same run twice overwrites it.
func (s *PostgresStore) Save(ctx context.Context, sum Summary) error {
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO sentiment_runs (id, summary, accuracy, finished_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET summary = EXCLUDED.summary, accuracy = EXCLUDED.accuracy, finished_at = EXCLUDED.finished_at`,
		sum.RunID, data, sum.Accuracy, sum.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", sum.RunID, err)
	}
	s.logger.Info("run saved", "run_id", sum.RunID, "accuracy", sum.Accuracy)
	return nil
}

// Latest loads the most recently finished run. Returns nil, nil if no runs
// exist yet.
func (s *PostgresStore) Latest(ctx context.Context) (*Summary, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT summary FROM sentiment_runs ORDER BY finished_at DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run: %w", err)
	}

	var sum Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("unmarshaling run summary: %w", err)
	}
	return &sum, nil
}

// List returns the last limit runs, newest first.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT summary FROM sentiment_runs ORDER BY finished_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Summary
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		var sum Summary
		if err := json.Unmarshal(data, &sum); err != nil {
			s.logger.Warn("skipping corrupt run summary", "error", err)
			continue
		}
		runs = append(runs, sum)
	}
	return runs, rows.Err()
}
