// Package metrics records fetch outcomes and phase timings for a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
	OutcomeCached      = "cached"
)

// City status labels.
const (
	StatusIncluded = "included"
	StatusExcluded = "excluded"
	StatusFailed   = "failed"
)

// Recorder owns its registry so several runs (or tests) never collide on
// the default Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	WeatherFetches *prometheus.CounterVec
	PriceFetches   *prometheus.CounterVec
	Cities         *prometheus.CounterVec
	PhaseDuration  *prometheus.HistogramVec
	UnitsUnderCap  *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		WeatherFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "destination_weather_fetches_total",
				Help: "Weather provider calls by outcome, retries included",
			},
			[]string{"outcome"},
		),
		PriceFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "destination_price_fetches_total",
				Help: "Price provider calls by outcome",
			},
			[]string{"outcome"},
		),
		Cities: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "destination_cities_total",
				Help: "Cities processed by final status",
			},
			[]string{"status"},
		),
		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "destination_phase_duration_seconds",
				Help:    "Duration of the weather and price phases",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"phase"},
		),
		UnitsUnderCap: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "destination_units_under_budget",
				Help: "Listings at or below the nightly budget, per city",
			},
			[]string{"city"},
		),
	}

	r.registry.MustRegister(r.WeatherFetches, r.PriceFetches, r.Cities, r.PhaseDuration, r.UnitsUnderCap)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) WeatherFetch(outcome string) {
	if r == nil {
		return
	}
	r.WeatherFetches.WithLabelValues(outcome).Inc()
}

func (r *Recorder) PriceFetch(outcome string) {
	if r == nil {
		return
	}
	r.PriceFetches.WithLabelValues(outcome).Inc()
}

func (r *Recorder) City(status string) {
	if r == nil {
		return
	}
	r.Cities.WithLabelValues(status).Inc()
}

func (r *Recorder) Units(city string, units int) {
	if r == nil {
		return
	}
	r.UnitsUnderCap.WithLabelValues(city).Set(float64(units))
}

func (r *Recorder) Phase(phase string, d time.Duration) {
	if r == nil {
		return
	}
	r.PhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// WriteTextfile dumps the registry in the text exposition format, suitable
// for node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
