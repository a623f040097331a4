// Package pipeline drives the per-city fetch: a sequential, rate-limited
// weather phase followed by a bounded parallel price phase.
package pipeline

import (
	"context"
	"destination-finder/metrics"
	"destination-finder/models"
	"destination-finder/services"
	"destination-finder/utils"
	"errors"
	"fmt"
	"runtime"
	"time"
)

type WeatherProvider interface {
	Fetch(ctx context.Context, city string, dates models.DateRange) (models.WeatherSample, error)
}

// PriceProvider returns the whole-stay price histogram for a city. A search
// with no matching listings is a histogram of zero counts, not an error.
type PriceProvider interface {
	Fetch(ctx context.Context, city string, query models.PriceQuery) (models.PriceHistogram, error)
}

type Options struct {
	OnlyNonZeroUnits bool
	Workers          int

	// WeatherDelay separates consecutive weather requests.
	WeatherDelay      time.Duration
	WeatherRetries    int
	RetryInitialDelay time.Duration
	WeatherTimeout    time.Duration
	PriceTimeout      time.Duration

	Metrics *metrics.Recorder
}

func DefaultOptions() Options {
	return Options{
		Workers:           runtime.NumCPU(),
		WeatherDelay:      150 * time.Millisecond,
		WeatherRetries:    3,
		RetryInitialDelay: time.Second,
		WeatherTimeout:    30 * time.Second,
		PriceTimeout:      30 * time.Second,
	}
}

type Orchestrator struct {
	weather WeatherProvider
	prices  PriceProvider
	opts    Options
}

func New(weather WeatherProvider, prices PriceProvider, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.WeatherRetries <= 0 {
		opts.WeatherRetries = 1
	}
	return &Orchestrator{weather: weather, prices: prices, opts: opts}
}

// Run processes every city and returns the included results keyed by city.
// Only invalid input fails the run up front; per-city errors end up in
// Run.Failed. A cancelled ctx stops the remaining work and is returned
// together with what was collected so far.
func (o *Orchestrator) Run(ctx context.Context, cities []string, params models.SearchParams) (*Run, error) {
	if o.weather == nil || o.prices == nil {
		return nil, ErrMissingProvider
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	run := newRun()
	cities = dedupe(cities)
	if len(cities) == 0 {
		return run, nil
	}

	utils.Section("Weather")
	start := time.Now()
	samples, err := o.fetchWeather(ctx, cities, params.Dates)
	o.opts.Metrics.Phase("weather", time.Since(start))
	if err != nil {
		return run, err
	}

	utils.Section("Prices")
	start = time.Now()
	pool := newPricePool(o.prices, o.opts.Workers, o.opts.PriceTimeout)
	for res := range pool.run(ctx, cities, params.Query()) {
		o.collect(run, res, samples[res.city], params)
	}
	o.opts.Metrics.Phase("price", time.Since(start))

	utils.Success("Cities included: %d | Excluded: %d | Failed: %d",
		len(run.Cities), len(run.Excluded), len(run.Failed))

	return run, ctx.Err()
}

// fetchWeather calls the provider for one city at a time. Any failure
// leaves that city's sample empty.
func (o *Orchestrator) fetchWeather(ctx context.Context, cities []string, dates models.DateRange) (map[string]models.WeatherSample, error) {
	samples := make(map[string]models.WeatherSample, len(cities))

	for i, city := range cities {
		if i > 0 {
			if err := utils.Sleep(ctx, o.opts.WeatherDelay); err != nil {
				return samples, err
			}
		}

		sample, err := o.fetchCityWeather(ctx, city, dates)
		if err != nil {
			if ctx.Err() != nil {
				return samples, ctx.Err()
			}
			utils.Warn("Weather data not available for %s: %v", city, err)
			sample = models.WeatherSample{}
		}
		samples[city] = sample
		utils.Debug("Weather %d/%d: %s", i+1, len(cities), city)
	}

	return samples, nil
}

func (o *Orchestrator) fetchCityWeather(ctx context.Context, city string, dates models.DateRange) (models.WeatherSample, error) {
	var sample models.WeatherSample

	err := utils.RetryIf(ctx, o.opts.WeatherRetries, o.opts.RetryInitialDelay, isRateLimited, func() error {
		callCtx, cancel := withTimeout(ctx, o.opts.WeatherTimeout)
		defer cancel()

		s, err := o.weather.Fetch(callCtx, city, dates)
		switch {
		case err == nil:
			o.opts.Metrics.WeatherFetch(metrics.OutcomeOK)
			sample = s
		case isRateLimited(err):
			o.opts.Metrics.WeatherFetch(metrics.OutcomeRateLimited)
		default:
			o.opts.Metrics.WeatherFetch(metrics.OutcomeError)
		}
		return err
	})

	return sample, err
}

func (o *Orchestrator) collect(run *Run, res priceResult, weather models.WeatherSample, params models.SearchParams) {
	if errors.Is(res.err, models.ErrMalformedHistogram) {
		// the search answered; only the summary is unusable
		utils.Warn("Malformed price response for %s: %v", res.city, res.err)
		res.histogram, res.err = models.PriceHistogram{}, nil
	}
	if res.err != nil {
		utils.Error("Price lookup failed for %s: %v", res.city, res.err)
		o.opts.Metrics.PriceFetch(metrics.OutcomeError)
		o.opts.Metrics.City(metrics.StatusFailed)
		run.Failed[res.city] = res.err
		return
	}
	o.opts.Metrics.PriceFetch(metrics.OutcomeOK)

	result := buildResult(res.city, res.histogram, weather, params)
	o.opts.Metrics.Units(res.city, result.UnitCount)

	if result.UnitCount == 0 && o.opts.OnlyNonZeroUnits {
		utils.Info("Skipping %s: no units under %.0f/night", res.city, params.MaxPricePerNight)
		o.opts.Metrics.City(metrics.StatusExcluded)
		run.Excluded = append(run.Excluded, res.city)
		return
	}

	o.opts.Metrics.City(metrics.StatusIncluded)
	run.Cities[res.city] = result
}

// buildResult derives the city statistics from a whole-stay histogram.
// A malformed histogram is reported as a city with no statistics.
func buildResult(city string, stay models.PriceHistogram, weather models.WeatherSample, params models.SearchParams) models.CityResult {
	nightly := stay.PerNight(params.StayDurationNights)
	result := models.CityResult{
		Temperature: weather.Temperature,
		Secondary:   weather.Secondary,
		Histogram:   nightly,
	}

	stats, err := services.ComputeStatistics(nightly, params)
	if err != nil {
		utils.Warn("Unusable price histogram for %s: %v", city, err)
		return result
	}

	result.UnitCount = stats.FilteredCount
	result.MedianPrice = stats.MedianPrice
	result.NthCheapestPrice = stats.NthCheapestPrice
	result.PercentilePrice = stats.PercentilePrice

	if avg, err := services.WeightedAverage(nightly); err == nil {
		result.AveragePrice = &avg
	} else if !errors.Is(err, models.ErrEmptyHistogram) {
		utils.Warn("No average price for %s: %v", city, err)
	}

	return result
}

func isRateLimited(err error) bool {
	return errors.Is(err, models.ErrRateLimited)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeoutCause(ctx, d, fmt.Errorf("provider call exceeded %v", d))
}

func dedupe(cities []string) []string {
	seen := make(map[string]bool, len(cities))
	out := make([]string, 0, len(cities))
	for _, c := range cities {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
