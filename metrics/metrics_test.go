package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()
	r.WeatherFetch(OutcomeOK)
	r.WeatherFetch(OutcomeRateLimited)
	r.WeatherFetch(OutcomeRateLimited)
	r.PriceFetch(OutcomeError)
	r.City(StatusIncluded)
	r.Units("Lisbon, Portugal", 42)
	r.Phase("weather", 250*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.WeatherFetches.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.WeatherFetches.WithLabelValues(OutcomeRateLimited)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PriceFetches.WithLabelValues(OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Cities.WithLabelValues(StatusIncluded)))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.UnitsUnderCap.WithLabelValues("Lisbon, Portugal")))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.WeatherFetch(OutcomeOK)
		r.PriceFetch(OutcomeOK)
		r.City(StatusFailed)
		r.Units("x", 1)
		r.Phase("price", time.Second)
	})
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.City(StatusExcluded)

	path := filepath.Join(t.TempDir(), "destination.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `destination_cities_total{status="excluded"} 1`)
}
