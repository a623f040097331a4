package airbnb

import (
	"bytes"
	"context"
	"destination-finder/models"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	operationName = "DynamicFilters"
	queryHash     = "d41301236ac7e50af23ebb44389773d88e24bc33ad7b88054e5bcb2533a17769"
)

type ClientConfig struct {
	APIURL    string
	APIKey    string
	Currency  string
	Locale    string
	UserAgent string
	Timeout   time.Duration
}

// Client asks the stays search for its price histogram only; no listings
// are downloaded.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Fetch returns the whole-stay price histogram for city.
func (c *Client) Fetch(ctx context.Context, city string, q models.PriceQuery) (models.PriceHistogram, error) {
	body, err := json.Marshal(searchRequest(city, q))
	if err != nil {
		return models.PriceHistogram{}, fmt.Errorf("could not encode search: %w", err)
	}

	u, err := url.Parse(c.cfg.APIURL + "/" + queryHash)
	if err != nil {
		return models.PriceHistogram{}, fmt.Errorf("invalid api url: %w", err)
	}
	params := u.Query()
	params.Set("operationName", operationName)
	params.Set("locale", c.cfg.Locale)
	params.Set("currency", c.cfg.Currency)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return models.PriceHistogram{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-airbnb-api-key", c.cfg.APIKey)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.PriceHistogram{}, fmt.Errorf("search request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return models.PriceHistogram{}, fmt.Errorf("search for %s: %w", city, models.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.PriceHistogram{}, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.PriceHistogram{}, fmt.Errorf("failed to parse search response: %w", err)
	}

	return parsed.histogram()
}

type rawParam struct {
	FilterName   string   `json:"filterName"`
	FilterValues []string `json:"filterValues"`
}

func param(name string, values ...string) rawParam {
	return rawParam{FilterName: name, FilterValues: values}
}

func searchRequest(city string, q models.PriceQuery) map[string]interface{} {
	rawParams := []rawParam{
		param("adults", strconv.Itoa(q.Adults)),
		param("channel", "EXPLORE"),
		param("checkin", q.Dates.Start.Format(models.DateLayout)),
		param("checkout", q.Dates.End.Format(models.DateLayout)),
		param("date_picker_type", "calendar"),
		param("location", city),
		param("min_bedrooms", strconv.Itoa(q.Bedrooms)),
		param("min_beds", strconv.Itoa(q.Bedrooms)),
		param("price_filter_input_type", "0"),
		param("price_filter_num_nights", strconv.Itoa(q.Dates.Nights())),
		param("query", city),
		param("refinement_paths", "/homes"),
		param("room_types", "Entire home/apt"),
		param("search_mode", "regular_search"),
		param("search_type", "filter_change"),
		param("tab_id", "home_tab"),
		param("update_price_histogram", "true"),
	}

	return map[string]interface{}{
		"operationName": operationName,
		"variables": map[string]interface{}{
			"staysSearchRequest": map[string]interface{}{
				"metadataOnly":      true,
				"rawParams":         rawParams,
				"requestedPageType": "STAYS_SEARCH",
			},
			"isStaysSearch":       true,
			"isExperiencesSearch": false,
			"isLeanTreatment":     false,
		},
		"extensions": map[string]interface{}{
			"persistedQuery": map[string]interface{}{
				"version":    1,
				"sha256Hash": queryHash,
			},
		},
	}
}

type filterItem struct {
	PriceHistogram []int    `json:"priceHistogram"`
	MinValue       *float64 `json:"minValue"`
	MaxValue       *float64 `json:"maxValue"`
}

type searchResponse struct {
	Data struct {
		Presentation struct {
			StaysSearch struct {
				DynamicFilters struct {
					SectionReplacementsByID []struct {
						SectionData struct {
							DiscreteFilterItems []filterItem `json:"discreteFilterItems"`
						} `json:"sectionData"`
					} `json:"sectionReplacementsByID"`
				} `json:"dynamicFilters"`
			} `json:"staysSearch"`
		} `json:"presentation"`
	} `json:"data"`
}

func (r searchResponse) histogram() (models.PriceHistogram, error) {
	sections := r.Data.Presentation.StaysSearch.DynamicFilters.SectionReplacementsByID
	if len(sections) == 0 || len(sections[0].SectionData.DiscreteFilterItems) == 0 {
		return models.PriceHistogram{}, fmt.Errorf("%w: no price filter section in response", models.ErrMalformedHistogram)
	}

	item := sections[0].SectionData.DiscreteFilterItems[0]
	if item.PriceHistogram == nil || item.MinValue == nil || item.MaxValue == nil {
		return models.PriceHistogram{}, fmt.Errorf("%w: price histogram fields missing", models.ErrMalformedHistogram)
	}

	return models.PriceHistogram{
		Counts:   item.PriceHistogram,
		MinValue: *item.MinValue,
		MaxValue: *item.MaxValue,
	}, nil
}
