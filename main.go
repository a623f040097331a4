package main

import (
	"context"
	"destination-finder/config"
	"destination-finder/metrics"
	"destination-finder/models"
	"destination-finder/pipeline"
	"destination-finder/scraper/airbnb"
	"destination-finder/scraper/weather"
	"destination-finder/services"
	"destination-finder/storage"
	"destination-finder/utils"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults are used when empty)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		utils.Error("Could not load config: %v", err)
		os.Exit(1)
	}
	utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.Error("%v", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.DefaultConfig()
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

func run(ctx context.Context, cfg *config.Config) error {
	defer utils.Elapsed("run", time.Now())

	catalog, err := config.LoadCities(cfg.CitiesFile)
	if err != nil {
		return err
	}
	cities := cfg.FilterCities(catalog)
	if len(cities) == 0 {
		utils.Warn("No cities match the configured filters.")
		return nil
	}

	params := cfg.SearchParams(time.Now())
	utils.Info("Searching %d cities | %s | bedrooms=%d adults=%d budget=%.0f/night workers=%d",
		len(cities), params.Dates, params.Bedrooms, params.Adults, params.MaxPricePerNight, cfg.Workers)

	prices, err := newPriceClient(ctx, cfg)
	if err != nil {
		return err
	}

	rec := metrics.NewRecorder()
	weatherProvider, closeCache, err := newWeatherProvider(ctx, cfg, rec)
	if err != nil {
		return err
	}
	defer closeCache()

	orchestrator := pipeline.New(weatherProvider, prices, pipeline.Options{
		OnlyNonZeroUnits:  cfg.OnlyNonZeroUnits,
		Workers:           cfg.Workers,
		WeatherDelay:      cfg.WeatherDelay,
		WeatherRetries:    cfg.WeatherRetries,
		RetryInitialDelay: cfg.RetryInitialDelay,
		WeatherTimeout:    cfg.RequestTimeout,
		PriceTimeout:      cfg.RequestTimeout,
		Metrics:           rec,
	})

	result, err := orchestrator.Run(ctx, cities, params)
	if result == nil {
		return err
	}
	if err != nil {
		utils.Warn("Run interrupted, reporting partial results: %v", err)
	}

	sortBy := pipeline.ByMedian
	if cfg.SortBy == config.SortByAverage {
		sortBy = pipeline.ByAverage
	}
	sorted := result.Sorted(sortBy)

	printSummary(len(cities), result)
	printReport(cfg, sorted)

	runID := uuid.New()
	if err := writeResults(ctx, cfg, runID, sorted, params); err != nil {
		utils.Error("Failed to save results: %v", err)
	}

	if cfg.Output.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			utils.Warn("Could not write metrics: %v", err)
		}
	}
	return nil
}

func newPriceClient(ctx context.Context, cfg *config.Config) (*airbnb.Client, error) {
	userAgent := utils.RandomUserAgent()

	apiKey := os.Getenv("AIRBNB_API_KEY")
	if apiKey == "" && cfg.Airbnb.DiscoverKey {
		utils.Info("AIRBNB_API_KEY not set, discovering it from %s", cfg.Airbnb.BaseURL)
		key, err := airbnb.DiscoverAPIKey(ctx, airbnb.BrowserConfig{
			BaseURL:   cfg.Airbnb.BaseURL,
			Headless:  cfg.Airbnb.Headless,
			UserAgent: userAgent,
			Timeout:   cfg.RequestTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("api key discovery: %w", err)
		}
		apiKey = key
	}

	client, err := airbnb.NewClient(airbnb.ClientConfig{
		APIURL:    cfg.Airbnb.APIURL,
		APIKey:    apiKey,
		Currency:  cfg.Airbnb.Currency,
		Locale:    cfg.Airbnb.Locale,
		UserAgent: userAgent,
		Timeout:   cfg.RequestTimeout,
	})
	if errors.Is(err, airbnb.ErrMissingAPIKey) {
		return nil, fmt.Errorf("%w: set AIRBNB_API_KEY or enable airbnb.discoverKey", err)
	}
	return client, err
}

func newWeatherProvider(ctx context.Context, cfg *config.Config, rec *metrics.Recorder) (pipeline.WeatherProvider, func(), error) {
	secondary := weather.DewPoint
	if cfg.WeatherMetric == config.MetricApparentTemperature {
		secondary = weather.ApparentTemperature
	}

	geocoder := weather.NewGeocoder(cfg.Weather.GeocodeURL, cfg.Weather.UserAgent, cfg.RequestTimeout)
	archive := weather.NewOpenMeteo(cfg.Weather.ArchiveURL, secondary, geocoder, cfg.RequestTimeout)

	switch cfg.Cache.Backend {
	case config.CacheMemory:
		return weather.NewCached(archive, storage.NewMemoryCache(), cfg.Cache.TTL, secondary, rec), func() {}, nil
	case config.CacheRedis:
		cache, err := storage.NewRedisCache(ctx, cfg.Cache.RedisAddr, "destination-finder:")
		if err != nil {
			return nil, nil, err
		}
		closeCache := func() {
			if err := cache.Close(); err != nil {
				utils.Warn("redis close: %v", err)
			}
		}
		return weather.NewCached(archive, cache, cfg.Cache.TTL, secondary, rec), closeCache, nil
	}
	return archive, func() {}, nil
}

func printReport(cfg *config.Config, sorted []pipeline.NamedResult) {
	entries := make([]services.CityEntry, len(sorted))
	for i, n := range sorted {
		entries[i] = services.CityEntry{City: n.City, CityResult: n.CityResult}
	}

	services.PrintReport(os.Stdout, entries, services.ReportOptions{
		MaxPricePerNight: cfg.MaxPricePerNight,
		NthCheapest:      cfg.NthCheapest,
		BottomPercentile: cfg.BottomPercentile,
		ShowAverage:      cfg.SortBy == config.SortByAverage,
		ShowTemp:         cfg.ShowTemp,
		ShowSecondary:    cfg.ShowSecondary,
		SecondaryLabel:   cfg.SecondaryLabel(),
		Currency:         cfg.Airbnb.Currency,
	})

	if cfg.Histograms {
		for _, n := range sorted {
			services.RenderHistogram(os.Stdout, n.City, n.Histogram, cfg.MaxPricePerNight, 40)
		}
	}
}

func writeResults(ctx context.Context, cfg *config.Config, runID uuid.UUID, sorted []pipeline.NamedResult, params models.SearchParams) error {
	rows := make([]storage.Row, len(sorted))
	for i, n := range sorted {
		rows[i] = storage.NewRow(n.City, n.CityResult, params)
	}

	var sinks []storage.Sink
	if cfg.Output.CSVPath != "" {
		sinks = append(sinks, storage.NewCSVWriter(cfg.Output.CSVPath))
	}
	if cfg.Output.SQLitePath != "" {
		w, err := storage.NewSQLiteWriter(cfg.Output.SQLitePath)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		defer w.Close()
		sinks = append(sinks, w)
	}
	if cfg.Output.PostgresDSN != "" {
		w, err := storage.NewPostgresWriter(ctx, cfg.Output.PostgresDSN)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer w.Close()
		sinks = append(sinks, w)
	}
	if len(sinks) == 0 {
		return nil
	}

	utils.Info("Saving run %s", runID)
	return storage.WriteAll(ctx, runID, rows, sinks...)
}

func printSummary(searched int, result *pipeline.Run) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║                SEARCH COMPLETE               ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Cities searched : %-26d║\n", searched)
	fmt.Printf("║  Included        : %-26d║\n", len(result.Cities))
	fmt.Printf("║  No listings     : %-26d║\n", len(result.Excluded))
	fmt.Printf("║  Failed          : %-26d║\n", len(result.Failed))
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println()

	for city, err := range result.Failed {
		utils.Warn("%s: %v", city, err)
	}
}
