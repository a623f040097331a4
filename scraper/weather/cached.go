package weather

import (
	"context"
	"destination-finder/metrics"
	"destination-finder/models"
	"destination-finder/utils"
	"encoding/json"
	"strings"
	"time"
)

// Cache is satisfied by storage.MemoryCache and storage.RedisCache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Provider interface {
	Fetch(ctx context.Context, city string, dates models.DateRange) (models.WeatherSample, error)
}

// Cached serves repeat lookups from cache. Only complete samples are
// stored so a partial result is retried on the next run. Cache errors are
// logged and otherwise ignored.
type Cached struct {
	next    Provider
	cache   Cache
	ttl     time.Duration
	metric  string
	metrics *metrics.Recorder
}

func NewCached(next Provider, cache Cache, ttl time.Duration, metric string, rec *metrics.Recorder) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl, metric: metric, metrics: rec}
}

type cachedSample struct {
	Temperature *float64 `json:"temperature"`
	Secondary   *float64 `json:"secondary"`
}

func (c *Cached) Fetch(ctx context.Context, city string, dates models.DateRange) (models.WeatherSample, error) {
	key := c.key(city, dates)

	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		utils.Warn("Weather cache read failed for %s: %v", city, err)
	} else if ok {
		var s cachedSample
		if err := json.Unmarshal(data, &s); err == nil {
			c.metrics.WeatherFetch(metrics.OutcomeCached)
			return models.WeatherSample{Temperature: s.Temperature, Secondary: s.Secondary}, nil
		}
	}

	sample, err := c.next.Fetch(ctx, city, dates)
	if err != nil {
		return sample, err
	}

	if sample.Complete() {
		data, _ := json.Marshal(cachedSample{Temperature: sample.Temperature, Secondary: sample.Secondary})
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			utils.Warn("Weather cache write failed for %s: %v", city, err)
		}
	}
	return sample, nil
}

func (c *Cached) key(city string, dates models.DateRange) string {
	return strings.Join([]string{
		"weather",
		strings.ToLower(strings.TrimSpace(city)),
		dates.Start.Format(models.DateLayout),
		dates.End.Format(models.DateLayout),
		c.metric,
	}, "|")
}
