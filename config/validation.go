package config

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid config")

func invalid(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, a...))
}

// Validate reports the first problem found.
func (c *Config) Validate() error {
	if c.Bedrooms < 0 {
		return invalid("bedrooms must be >= 0, got %d", c.Bedrooms)
	}
	if c.Adults < 1 {
		return invalid("adults must be >= 1, got %d", c.Adults)
	}
	if c.MaxPricePerNight <= 0 {
		return invalid("maxPricePerNight must be > 0, got %v", c.MaxPricePerNight)
	}
	if c.StayDuration < 1 {
		return invalid("stayDuration must be >= 1, got %d", c.StayDuration)
	}
	if c.DaysFromNow < 0 {
		return invalid("daysFromNow must be >= 0, got %d", c.DaysFromNow)
	}
	if c.NthCheapest != nil && *c.NthCheapest < 1 {
		return invalid("nthCheapest must be >= 1, got %d", *c.NthCheapest)
	}
	if c.BottomPercentile != nil && (*c.BottomPercentile < 0 || *c.BottomPercentile > 100) {
		return invalid("bottomPercentile must be within 0..100, got %v", *c.BottomPercentile)
	}
	if c.WeatherDelay < 0 || c.RetryInitialDelay < 0 {
		return invalid("delays must not be negative")
	}

	switch c.WeatherMetric {
	case MetricDewPoint, MetricApparentTemperature:
	default:
		return invalid("weatherMetric must be %q or %q, got %q", MetricDewPoint, MetricApparentTemperature, c.WeatherMetric)
	}

	switch c.SortBy {
	case SortByMedian, SortByAverage:
	default:
		return invalid("sortBy must be %q or %q, got %q", SortByMedian, SortByAverage, c.SortBy)
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return invalid("cache.redisAddr is required for the redis backend")
		}
	default:
		return invalid("unknown cache backend %q", c.Cache.Backend)
	}

	if c.Airbnb.APIURL == "" {
		return invalid("airbnb.apiURL is required")
	}
	if c.Weather.ArchiveURL == "" || c.Weather.GeocodeURL == "" {
		return invalid("weather.archiveURL and weather.geocodeURL are required")
	}

	return nil
}

// SecondaryLabel is the report column title for the secondary weather metric.
func (c *Config) SecondaryLabel() string {
	if c.WeatherMetric == MetricApparentTemperature {
		return "Feels Like (°C)"
	}
	return "Dew Point (°C)"
}
