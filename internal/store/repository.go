// Package store persists finished report runs so a generation can be
// inspected or exported again without recomputation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that no stored run matched the query.
var ErrNotFound = errors.New("report run not found")

// Run is a stored report run: the serialized simulation output plus
// when it was generated.
type Run struct {
	ID        int             `json:"id"`
	RunDate   time.Time       `json:"runDate"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Repository defines persistent storage for report runs.
type Repository interface {
	Save(ctx context.Context, runDate time.Time, data json.RawMessage) error
	Latest(ctx context.Context) (*Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL run repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Save(ctx context.Context, runDate time.Time, data json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO report_runs (run_date, data)
		 VALUES ($1, $2::jsonb)
		 ON CONFLICT (run_date) DO UPDATE SET data = $2::jsonb`,
		runDate, data)
	if err != nil {
		return fmt.Errorf("saving report run: %w", err)
	}
	return nil
}

func (r *PgRepository) Latest(ctx context.Context) (*Run, error) {
	var run Run
	err := r.pool.QueryRow(ctx,
		`SELECT id, run_date, data, created_at FROM report_runs
		 ORDER BY run_date DESC LIMIT 1`).
		Scan(&run.ID, &run.RunDate, &run.Data, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest report run: %w", err)
	}
	return &run, nil
}

func (r *PgRepository) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, run_date, data, created_at FROM report_runs
		 ORDER BY run_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing report runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.RunDate, &run.Data, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning report run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
