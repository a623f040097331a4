package storage

import (
	"context"
	"database/sql"
	"destination-finder/models"
	"destination-finder/utils"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteWriter keeps run history in a local file so runs can be compared
// without a database server.
type SQLiteWriter struct {
	db *sql.DB
}

func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		utils.Warn("could not set WAL mode: %v", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS city_results (
		run_id TEXT NOT NULL,
		city TEXT NOT NULL,
		checkin TEXT NOT NULL,
		checkout TEXT NOT NULL,
		bedrooms INTEGER NOT NULL,
		adults INTEGER NOT NULL,
		max_price_per_night REAL NOT NULL,
		units INTEGER NOT NULL,
		median_price REAL,
		nth_cheapest_price REAL,
		percentile_price REAL,
		average_price REAL,
		temperature REAL,
		secondary REAL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (run_id, city)
	);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &SQLiteWriter{db: db}, nil
}

func (w *SQLiteWriter) Name() string { return "sqlite" }

func (w *SQLiteWriter) Write(ctx context.Context, runID uuid.UUID, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO city_results(run_id, city, checkin, checkout,
		bedrooms, adults, max_price_per_night, units, median_price, nth_cheapest_price, percentile_price,
		average_price, temperature, secondary, created_at) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range rows {
		_, err := stmt.ExecContext(ctx, runID.String(), r.City,
			r.CheckIn.Format(models.DateLayout), r.CheckOut.Format(models.DateLayout), r.Bedrooms, r.Adults,
			r.MaxPricePerNight, r.UnitCount, nullable(r.MedianPrice), nullable(r.NthCheapestPrice),
			nullable(r.PercentilePrice), nullable(r.AveragePrice), nullable(r.Temperature), nullable(r.Secondary), now)
		if err != nil {
			return fmt.Errorf("insert %s: %w", r.City, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	utils.Success("Saved %d cities to SQLite", len(rows))
	return nil
}

// ListRun returns the rows stored for one run, ordered by city.
func (w *SQLiteWriter) ListRun(ctx context.Context, runID uuid.UUID) ([]Row, error) {
	rows, err := w.db.QueryContext(ctx, `SELECT city, checkin, checkout, bedrooms, adults, max_price_per_night,
		units, median_price, nth_cheapest_price, percentile_price, average_price, temperature, secondary
		FROM city_results WHERE run_id = ? ORDER BY city`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var checkIn, checkOut string
		var median, nth, pct, avg, temp, sec sql.NullFloat64
		if err := rows.Scan(&r.City, &checkIn, &checkOut, &r.Bedrooms, &r.Adults, &r.MaxPricePerNight,
			&r.UnitCount, &median, &nth, &pct, &avg, &temp, &sec); err != nil {
			return nil, err
		}
		if r.CheckIn, err = time.Parse(models.DateLayout, checkIn); err != nil {
			return nil, fmt.Errorf("bad checkin %q: %w", checkIn, err)
		}
		if r.CheckOut, err = time.Parse(models.DateLayout, checkOut); err != nil {
			return nil, fmt.Errorf("bad checkout %q: %w", checkOut, err)
		}
		r.MedianPrice = fromNull(median)
		r.NthCheapestPrice = fromNull(nth)
		r.PercentilePrice = fromNull(pct)
		r.AveragePrice = fromNull(avg)
		r.Temperature = fromNull(temp)
		r.Secondary = fromNull(sec)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
