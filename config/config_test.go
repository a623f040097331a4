package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
bedrooms: 3
adults: 4
maxPricePerNight: 220
nthCheapest: 5
bottomPercentile: 25
stayDuration: 10
weatherMetric: Apparent_Temperature
weatherDelay: 200ms
cache:
  backend: redis
  redisAddr: cache:6379
`))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Bedrooms)
	assert.Equal(t, 4, cfg.Adults)
	assert.Equal(t, 220.0, cfg.MaxPricePerNight)
	require.NotNil(t, cfg.NthCheapest)
	assert.Equal(t, 5, *cfg.NthCheapest)
	require.NotNil(t, cfg.BottomPercentile)
	assert.Equal(t, 25.0, *cfg.BottomPercentile)
	assert.Equal(t, MetricApparentTemperature, cfg.WeatherMetric)
	assert.Equal(t, 200*time.Millisecond, cfg.WeatherDelay)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)

	// untouched keys keep their defaults
	assert.Equal(t, 3, cfg.WeatherRetries)
	assert.Equal(t, "AUD", cfg.Airbnb.Currency)
	assert.Equal(t, "Feels Like (°C)", cfg.SecondaryLabel())
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"adults":       "adults: 0",
		"budget":       "maxPricePerNight: 0",
		"stay":         "stayDuration: 0",
		"percentile":   "bottomPercentile: 120",
		"nth":          "nthCheapest: 0",
		"metric":       "weatherMetric: humidity",
		"sort":         "sortBy: rating",
		"cache":        "cache: {backend: memcached}",
		"redis":        "cache: {backend: redis, redisAddr: ''}",
		"bad yaml":     "bedrooms: [",
		"negative day": "daysFromNow: -1",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("DF_TEST_DSN", "postgres://u:p@db:5432/df")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  postgresDSN: ${DF_TEST_DSN}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/df", cfg.Output.PostgresDSN)
}

func TestSearchParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DaysFromNow = 10
	cfg.StayDuration = 7
	nth := 3
	cfg.NthCheapest = &nth

	now := time.Date(2026, 10, 14, 17, 45, 0, 0, time.UTC)
	params := cfg.SearchParams(now)

	assert.Equal(t, "2026-10-24", params.Dates.Start.Format("2006-01-02"))
	assert.Equal(t, "2026-10-31", params.Dates.End.Format("2006-01-02"))
	assert.Equal(t, 7, params.Dates.Nights())
	require.NotNil(t, params.NthCheapest)
	assert.Nil(t, params.BottomPercentile)
	require.NoError(t, params.Validate())

	// params are detached from the config
	nth = 99
	assert.Equal(t, 3, *params.NthCheapest)
}

func TestFilterCities(t *testing.T) {
	catalog := Catalog{
		"Lisbon, Portugal":        {Region: "Europe", HasBeaches: true, InSchengen: true},
		"Porto, Portugal":         {Region: "Europe", HasBeaches: true, InSchengen: true},
		"Tbilisi, Georgia":        {Region: "Europe", HasBeaches: false, InSchengen: false},
		"Batumi, Georgia":         {Region: "Europe", HasBeaches: true, InSchengen: false},
		"Canggu, Bali, Indonesia": {Region: "Asia", HasBeaches: true},
	}

	cfg := DefaultConfig()
	assert.Len(t, cfg.FilterCities(catalog), 5)

	cfg.Region = "Europe"
	cfg.OnlyNonSchengen = true
	assert.Equal(t, []string{"Batumi, Georgia", "Tbilisi, Georgia"}, cfg.FilterCities(catalog))

	cfg.OnlyHasBeaches = true
	assert.Equal(t, []string{"Batumi, Georgia"}, cfg.FilterCities(catalog))

	cfg = DefaultConfig()
	cfg.Country = "portugal"
	assert.Equal(t, []string{"Lisbon, Portugal", "Porto, Portugal"}, cfg.FilterCities(catalog))

	cfg.Country = "Bali"
	assert.Equal(t, []string{"Canggu, Bali, Indonesia"}, cfg.FilterCities(catalog))
}

func TestLoadCities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Da Nang, Vietnam": {"region": "Asia", "hasbeaches": true, "inschengen": false}}`), 0o644))

	catalog, err := LoadCities(path)
	require.NoError(t, err)
	require.Contains(t, catalog, "Da Nang, Vietnam")
	assert.True(t, catalog["Da Nang, Vietnam"].HasBeaches)

	_, err = LoadCities(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
