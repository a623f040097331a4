package weather

import (
	"context"
	"destination-finder/models"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

type Locator interface {
	Locate(ctx context.Context, city string) (Coordinates, error)
}

// Geocoder resolves city names through a Nominatim-compatible search
// endpoint. Results are kept for the life of the process.
type Geocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client

	mu    sync.Mutex
	known map[string]Coordinates
}

func NewGeocoder(baseURL, userAgent string, timeout time.Duration) *Geocoder {
	return &Geocoder{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		known:      make(map[string]Coordinates),
	}
}

func (g *Geocoder) Locate(ctx context.Context, city string) (Coordinates, error) {
	g.mu.Lock()
	c, ok := g.known[city]
	g.mu.Unlock()
	if ok {
		return c, nil
	}

	u, err := url.Parse(g.baseURL)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid geocode url: %w", err)
	}
	q := u.Query()
	q.Set("q", city)
	q.Set("format", "json")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Coordinates{}, err
	}
	// Nominatim rejects requests without an identifying agent.
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "geocode"); err != nil {
		return Coordinates{}, err
	}

	var places []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Coordinates{}, fmt.Errorf("failed to parse geocode response: %w", err)
	}
	if len(places) == 0 {
		return Coordinates{}, fmt.Errorf("%w: %s", models.ErrCityNotFound, city)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("bad latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("bad longitude %q: %w", places[0].Lon, err)
	}

	c = Coordinates{Latitude: lat, Longitude: lon}
	g.mu.Lock()
	g.known[city] = c
	g.mu.Unlock()
	return c, nil
}
