package storage

import (
	"context"
	"destination-finder/models"
	"destination-finder/utils"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// CSVWriter saves one run's city results to a CSV file, replacing any
// previous file at the same path.
type CSVWriter struct {
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

func (w *CSVWriter) Name() string { return "csv" }

// Write saves all rows to the CSV file.
// Creates the output directory if it does not exist.
// Absent values are written as empty cells.
func (w *CSVWriter) Write(_ context.Context, runID uuid.UUID, rows []Row) error {
	if len(rows) == 0 {
		utils.Warn("No city results to write")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	writer.Write([]string{
		"run_id", "city", "checkin", "checkout", "bedrooms", "adults", "max_price_per_night",
		"units", "median_price", "nth_cheapest_price", "percentile_price", "average_price",
		"temperature", "secondary",
	})

	for _, r := range rows {
		writer.Write([]string{
			runID.String(),
			r.City,
			r.CheckIn.Format(models.DateLayout),
			r.CheckOut.Format(models.DateLayout),
			strconv.Itoa(r.Bedrooms),
			strconv.Itoa(r.Adults),
			strconv.FormatFloat(r.MaxPricePerNight, 'f', 2, 64),
			strconv.Itoa(r.UnitCount),
			formatOptional(r.MedianPrice, 2),
			formatOptional(r.NthCheapestPrice, 2),
			formatOptional(r.PercentilePrice, 2),
			formatOptional(r.AveragePrice, 2),
			formatOptional(r.Temperature, 1),
			formatOptional(r.Secondary, 1),
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}

	utils.Success("Saved %d cities → %s", len(rows), w.path)
	return nil
}

func formatOptional(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
