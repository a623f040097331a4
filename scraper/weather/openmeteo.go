// Package weather provides historical climate averages per city.
package weather

import (
	"context"
	"destination-finder/models"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const temperatureVar = "temperature_2m"

// Secondary hourly variables.
const (
	DewPoint            = "dew_point_2m"
	ApparentTemperature = "apparent_temperature"
)

// OpenMeteo averages the archive's hourly readings for the same dates one
// year earlier, as a stand-in for the climate at travel time.
type OpenMeteo struct {
	archiveURL string
	secondary  string
	locator    Locator
	httpClient *http.Client
}

func NewOpenMeteo(archiveURL, secondary string, locator Locator, timeout time.Duration) *OpenMeteo {
	if secondary == "" {
		secondary = DewPoint
	}
	return &OpenMeteo{
		archiveURL: archiveURL,
		secondary:  secondary,
		locator:    locator,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Metric names the secondary variable; it is part of cache keys.
func (m *OpenMeteo) Metric() string {
	return m.secondary
}

func (m *OpenMeteo) Fetch(ctx context.Context, city string, dates models.DateRange) (models.WeatherSample, error) {
	coords, err := m.locator.Locate(ctx, city)
	if err != nil {
		return models.WeatherSample{}, err
	}

	past := dates.PreviousYear()
	u, err := url.Parse(m.archiveURL)
	if err != nil {
		return models.WeatherSample{}, fmt.Errorf("invalid archive url: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', 4, 64))
	q.Set("start_date", past.Start.Format(models.DateLayout))
	q.Set("end_date", past.End.Format(models.DateLayout))
	q.Set("hourly", temperatureVar+","+m.secondary)
	q.Set("timezone", "auto")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.WeatherSample{}, err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return models.WeatherSample{}, fmt.Errorf("archive request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "archive"); err != nil {
		return models.WeatherSample{}, err
	}

	var body struct {
		Hourly map[string]json.RawMessage `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.WeatherSample{}, fmt.Errorf("failed to parse archive response: %w", err)
	}

	temp, err := hourlyMean(body.Hourly, temperatureVar)
	if err != nil {
		return models.WeatherSample{}, err
	}
	secondary, err := hourlyMean(body.Hourly, m.secondary)
	if err != nil {
		return models.WeatherSample{}, err
	}

	return models.WeatherSample{Temperature: temp, Secondary: secondary}, nil
}

// hourlyMean averages a series, skipping null readings, rounded to 0.1.
// A missing or all-null series yields nil.
func hourlyMean(hourly map[string]json.RawMessage, name string) (*float64, error) {
	raw, ok := hourly[name]
	if !ok {
		return nil, nil
	}

	var values []*float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("bad %s series: %w", name, err)
	}

	sum := decimal.Zero
	n := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(*v))
		n++
	}
	if n == 0 {
		return nil, nil
	}

	mean := sum.Div(decimal.NewFromInt(int64(n))).Round(1).InexactFloat64()
	return &mean, nil
}

func checkStatus(resp *http.Response, what string) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", what, models.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", what, resp.StatusCode, string(snippet))
	}
	return nil
}
