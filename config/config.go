// Package config loads the run configuration and the candidate city catalog.
package config

import (
	"destination-finder/models"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	MetricDewPoint            = "dew_point"
	MetricApparentTemperature = "apparent_temperature"

	SortByMedian  = "median"
	SortByAverage = "average"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Bedrooms         int      `yaml:"bedrooms"`
	Adults           int      `yaml:"adults"`
	MaxPricePerNight float64  `yaml:"maxPricePerNight"`
	NthCheapest      *int     `yaml:"nthCheapest"`
	BottomPercentile *float64 `yaml:"bottomPercentile"`
	DaysFromNow      int      `yaml:"daysFromNow"`
	StayDuration     int      `yaml:"stayDuration"`
	OnlyNonZeroUnits bool     `yaml:"onlyNonZeroUnits"`

	ShowTemp      bool   `yaml:"showTemp"`
	ShowSecondary bool   `yaml:"showSecondary"`
	WeatherMetric string `yaml:"weatherMetric"`
	SortBy        string `yaml:"sortBy"`
	Histograms    bool   `yaml:"histograms"`

	Region          string `yaml:"region"`
	Country         string `yaml:"country"`
	OnlyHasBeaches  bool   `yaml:"onlyHasBeaches"`
	OnlyNonSchengen bool   `yaml:"onlyNonSchengen"`
	CitiesFile      string `yaml:"citiesFile"`

	Workers           int           `yaml:"workers"`
	WeatherDelay      time.Duration `yaml:"weatherDelay"`
	RetryInitialDelay time.Duration `yaml:"retryInitialDelay"`
	WeatherRetries    int           `yaml:"weatherRetries"`
	RequestTimeout    time.Duration `yaml:"requestTimeout"`

	Airbnb  AirbnbConfig  `yaml:"airbnb"`
	Weather WeatherConfig `yaml:"weather"`
	Cache   CacheConfig   `yaml:"cache"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

type AirbnbConfig struct {
	BaseURL     string `yaml:"baseURL"`
	APIURL      string `yaml:"apiURL"`
	Currency    string `yaml:"currency"`
	Locale      string `yaml:"locale"`
	DiscoverKey bool   `yaml:"discoverKey"`
	Headless    bool   `yaml:"headless"`
}

type WeatherConfig struct {
	ArchiveURL string `yaml:"archiveURL"`
	GeocodeURL string `yaml:"geocodeURL"`
	UserAgent  string `yaml:"userAgent"`
}

type CacheConfig struct {
	Backend   string        `yaml:"backend"`
	TTL       time.Duration `yaml:"ttl"`
	RedisAddr string        `yaml:"redisAddr"`
}

type OutputConfig struct {
	CSVPath     string `yaml:"csvPath"`
	SQLitePath  string `yaml:"sqlitePath"`
	PostgresDSN string `yaml:"postgresDSN"`
	MetricsFile string `yaml:"metricsFile"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Bedrooms:          2,
		Adults:            2,
		MaxPricePerNight:  150,
		DaysFromNow:       30,
		StayDuration:      7,
		OnlyNonZeroUnits:  true,
		ShowTemp:          true,
		ShowSecondary:     true,
		WeatherMetric:     MetricDewPoint,
		SortBy:            SortByMedian,
		CitiesFile:        "cities.json",
		Workers:           runtime.NumCPU(),
		WeatherDelay:      150 * time.Millisecond,
		RetryInitialDelay: time.Second,
		WeatherRetries:    3,
		RequestTimeout:    30 * time.Second,
		Airbnb: AirbnbConfig{
			BaseURL:  "https://www.airbnb.com.au/",
			APIURL:   "https://www.airbnb.com.au/api/v3/DynamicFilters",
			Currency: "AUD",
			Locale:   "en",
			Headless: true,
		},
		Weather: WeatherConfig{
			ArchiveURL: "https://archive-api.open-meteo.com/v1/archive",
			GeocodeURL: "https://nominatim.openstreetmap.org/search",
			UserAgent:  "destination-finder/1.0",
		},
		Cache: CacheConfig{
			Backend:   CacheMemory,
			TTL:       24 * time.Hour,
			RedisAddr: "localhost:6379",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over DefaultConfig. ${VAR} references are expanded
// from the environment before parsing.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse([]byte(os.ExpandEnv(string(data))))
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills fields an explicit zero in the file would break.
func applyDefaults(cfg *Config) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.WeatherRetries <= 0 {
		cfg.WeatherRetries = 3
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	cfg.WeatherMetric = strings.ToLower(strings.TrimSpace(cfg.WeatherMetric))
	if cfg.WeatherMetric == "" {
		cfg.WeatherMetric = MetricDewPoint
	}
	cfg.SortBy = strings.ToLower(strings.TrimSpace(cfg.SortBy))
	if cfg.SortBy == "" {
		cfg.SortBy = SortByMedian
	}
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheNone
	}
}

// SearchParams builds the immutable per-run parameters. Dates are truncated
// to midnight UTC so the nights count is exact.
func (c *Config) SearchParams(now time.Time) models.SearchParams {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := day.AddDate(0, 0, c.DaysFromNow)

	var nth *int
	if c.NthCheapest != nil {
		v := *c.NthCheapest
		nth = &v
	}
	var pct *float64
	if c.BottomPercentile != nil {
		v := *c.BottomPercentile
		pct = &v
	}

	return models.SearchParams{
		Bedrooms:           c.Bedrooms,
		Dates:              models.DateRange{Start: start, End: start.AddDate(0, 0, c.StayDuration)},
		Adults:             c.Adults,
		MaxPricePerNight:   c.MaxPricePerNight,
		StayDurationNights: c.StayDuration,
		NthCheapest:        nth,
		BottomPercentile:   pct,
	}
}
