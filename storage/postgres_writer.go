package storage

import (
	"context"
	"destination-finder/utils"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresWriter struct {
	pool *pgxpool.Pool
}

// NewPostgresWriter connects and makes sure the schema exists. The initial
// ping is retried since the database is often started alongside the run.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	err = utils.Retry(ctx, 3, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return pool.Ping(pingCtx)
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	w := &PostgresWriter{pool: pool}
	if err := w.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return w, nil
}

func (w *PostgresWriter) Name() string { return "postgres" }

func (w *PostgresWriter) Close() {
	if w.pool != nil {
		w.pool.Close()
	}
}

func (w *PostgresWriter) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	sql := `
	CREATE TABLE IF NOT EXISTS city_results (
		id BIGSERIAL PRIMARY KEY,
		run_id UUID NOT NULL,
		city TEXT NOT NULL,
		checkin DATE NOT NULL,
		checkout DATE NOT NULL,
		bedrooms INT NOT NULL,
		adults INT NOT NULL,
		max_price_per_night NUMERIC(12,2) NOT NULL,
		units INT NOT NULL,
		median_price NUMERIC(12,2),
		nth_cheapest_price NUMERIC(12,2),
		percentile_price NUMERIC(12,2),
		average_price NUMERIC(12,2),
		temperature NUMERIC(5,1),
		secondary NUMERIC(5,1),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (run_id, city)
	);

	CREATE INDEX IF NOT EXISTS idx_city_results_city ON city_results(city);
	CREATE INDEX IF NOT EXISTS idx_city_results_median ON city_results(median_price);
	`

	if _, err := w.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	return nil
}

func (w *PostgresWriter) Write(ctx context.Context, runID uuid.UUID, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	insertSQL := `
	INSERT INTO city_results (run_id, city, checkin, checkout, bedrooms, adults, max_price_per_night,
		units, median_price, nth_cheapest_price, percentile_price, average_price, temperature, secondary)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (run_id, city) DO NOTHING;
	`

	enqueued := 0
	for _, r := range rows {
		city := strings.TrimSpace(r.City)
		if city == "" {
			continue
		}

		batch.Queue(
			insertSQL,
			runID,
			city,
			r.CheckIn,
			r.CheckOut,
			r.Bedrooms,
			r.Adults,
			r.MaxPricePerNight,
			r.UnitCount,
			r.MedianPrice,
			r.NthCheapestPrice,
			r.PercentilePrice,
			r.AveragePrice,
			r.Temperature,
			r.Secondary,
		)
		enqueued++
	}

	if enqueued == 0 {
		return nil
	}

	results := w.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < enqueued; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}
	}

	utils.Success("Saved %d cities to PostgreSQL", enqueued)
	return nil
}
