package storage

import (
	"context"
	"destination-finder/models"
	"destination-finder/utils"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	utils.SetOutput(io.Discard, "text")
}

func f(v float64) *float64 { return &v }

func testRows() []Row {
	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	params := models.SearchParams{
		Bedrooms:           2,
		Adults:             2,
		MaxPricePerNight:   150,
		StayDurationNights: 7,
		Dates:              models.DateRange{Start: start, End: start.AddDate(0, 0, 7)},
	}
	return []Row{
		NewRow("Lisbon, Portugal", models.CityResult{
			UnitCount: 31, MedianPrice: f(128.5), AveragePrice: f(140.25), Temperature: f(22.4), Secondary: f(14.1),
		}, params),
		NewRow("Tbilisi, Georgia", models.CityResult{UnitCount: 0}, params),
	}
}

func TestCSVWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cities.csv")
	runID := uuid.New()

	require.NoError(t, NewCSVWriter(path).Write(context.Background(), runID, testRows()))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "city", records[0][1])
	assert.Equal(t, runID.String(), records[1][0])
	assert.Equal(t, "Lisbon, Portugal", records[1][1])
	assert.Equal(t, "2026-11-01", records[1][2])
	assert.Equal(t, "128.50", records[1][8])
	assert.Equal(t, "", records[1][9], "absent nth cheapest is an empty cell")
	assert.Equal(t, "22.4", records[1][12])
	assert.Equal(t, "", records[2][8])
}

func TestCSVWriter_NoRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.csv")
	require.NoError(t, NewCSVWriter(path).Write(context.Background(), uuid.New(), nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSQLiteWriter_WriteAndList(t *testing.T) {
	w, err := NewSQLiteWriter(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer w.Close()

	runID := uuid.New()
	ctx := context.Background()
	require.NoError(t, w.Write(ctx, runID, testRows()))
	// rewriting the same run replaces rows instead of failing
	require.NoError(t, w.Write(ctx, runID, testRows()))

	rows, err := w.ListRun(ctx, runID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	lisbon := rows[0]
	assert.Equal(t, "Lisbon, Portugal", lisbon.City)
	assert.Equal(t, 31, lisbon.UnitCount)
	require.NotNil(t, lisbon.MedianPrice)
	assert.Equal(t, 128.5, *lisbon.MedianPrice)
	assert.Nil(t, lisbon.NthCheapestPrice)
	assert.True(t, lisbon.CheckIn.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)))

	assert.Nil(t, rows[1].MedianPrice)
	assert.Nil(t, rows[1].Temperature)

	other, err := w.ListRun(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

type fakeSink struct {
	name  string
	err   error
	calls atomic.Int32
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Write(context.Context, uuid.UUID, []Row) error {
	s.calls.Add(1)
	return s.err
}

func TestWriteAll(t *testing.T) {
	ok := &fakeSink{name: "ok"}
	broken := &fakeSink{name: "broken", err: errors.New("disk full")}

	err := WriteAll(context.Background(), uuid.New(), testRows(), ok, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: disk full")
	assert.Equal(t, int32(1), ok.calls.Load())
	assert.Equal(t, int32(1), broken.calls.Load())

	assert.NoError(t, WriteAll(context.Background(), uuid.New(), testRows()))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`{"temperature":21.5}`)
	require.NoError(t, c.Set(ctx, "k", value, time.Hour))
	value[0] = 'X'

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"temperature":21.5}`, string(got), "stored value is a copy")

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok, _ = c.Get(ctx, "short")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))
	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)
}
