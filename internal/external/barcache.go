package external

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schedulefa/fareport/internal/dates"
	"github.com/schedulefa/fareport/internal/domain"
	"github.com/schedulefa/fareport/internal/price"
)

// BarRepository defines persistent storage for daily bars and the
// fetch windows that produced them.
type BarRepository interface {
	SaveBars(ctx context.Context, symbol string, from, to dates.Date, bars []domain.Bar) error
	GetBars(ctx context.Context, symbol string, from, to dates.Date) ([]domain.Bar, bool, error)
}

// PgBarRepository implements BarRepository with PostgreSQL. Bars are
// one row per (symbol, day); fetch windows are recorded separately so
// a covered window with legitimately missing trading days is not
// mistaken for a cache miss.
type PgBarRepository struct {
	pool *pgxpool.Pool
}

// NewPgBarRepository creates a new PostgreSQL bar repository.
func NewPgBarRepository(pool *pgxpool.Pool) *PgBarRepository {
	return &PgBarRepository{pool: pool}
}

func (r *PgBarRepository) SaveBars(ctx context.Context, symbol string, from, to dates.Date, bars []domain.Bar) error {
	for _, bar := range bars {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO price_bars (symbol, bar_date, open, high, close)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (symbol, bar_date)
			 DO UPDATE SET open = $3, high = $4, close = $5`,
			symbol, bar.Date.String(), bar.Open, bar.High, bar.Close)
		if err != nil {
			return fmt.Errorf("saving bar %s/%s: %w", symbol, bar.Date, err)
		}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO price_fetches (symbol, from_date, to_date, fetched_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (symbol, from_date, to_date) DO UPDATE SET fetched_at = NOW()`,
		symbol, from.String(), to.String())
	if err != nil {
		return fmt.Errorf("recording fetch window %s: %w", symbol, err)
	}
	return nil
}

func (r *PgBarRepository) GetBars(ctx context.Context, symbol string, from, to dates.Date) ([]domain.Bar, bool, error) {
	var covered bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM price_fetches
		   WHERE symbol = $1 AND from_date <= $2 AND to_date >= $3
		 )`,
		symbol, from.String(), to.String()).Scan(&covered)
	if err != nil {
		return nil, false, fmt.Errorf("checking fetch coverage for %s: %w", symbol, err)
	}
	if !covered {
		return nil, false, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT bar_date, open, high, close FROM price_bars
		 WHERE symbol = $1 AND bar_date BETWEEN $2 AND $3
		 ORDER BY bar_date`,
		symbol, from.String(), to.String())
	if err != nil {
		return nil, false, fmt.Errorf("getting bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		// bar_date is a DATE column; pgx delivers it in binary format,
		// which only scans into time targets.
		var day time.Time
		var bar domain.Bar
		if err := rows.Scan(&day, &bar.Open, &bar.High, &bar.Close); err != nil {
			return nil, false, fmt.Errorf("scanning bar: %w", err)
		}
		bar.Date = dates.FromTime(day)
		bars = append(bars, bar)
	}
	return bars, true, rows.Err()
}

// CachingBarProvider decorates a BarProvider with a BarRepository,
// serving covered windows from storage and persisting fresh fetches.
// Storage failures degrade to direct fetches rather than failing the
// lookup.
type CachingBarProvider struct {
	inner price.BarProvider
	repo  BarRepository
}

// NewCachingBarProvider wraps inner with repo-backed caching.
func NewCachingBarProvider(inner price.BarProvider, repo BarRepository) *CachingBarProvider {
	return &CachingBarProvider{inner: inner, repo: repo}
}

func (c *CachingBarProvider) DailyBars(ctx context.Context, symbol string, from, to dates.Date) ([]domain.Bar, error) {
	bars, covered, err := c.repo.GetBars(ctx, symbol, from, to)
	if err != nil {
		slog.Warn("bar cache read failed, fetching directly", "symbol", symbol, "error", err)
	} else if covered {
		return bars, nil
	}

	bars, err = c.inner.DailyBars(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if err := c.repo.SaveBars(ctx, symbol, from, to, bars); err != nil {
		slog.Warn("bar cache write failed", "symbol", symbol, "error", err)
	}
	return bars, nil
}
