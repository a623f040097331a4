package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// CityInfo is a catalog entry. Catalog keys look like "Canggu, Bali, Indonesia";
// the segment after the first comma is matched against the country filter.
type CityInfo struct {
	Region     string `json:"region"`
	HasBeaches bool   `json:"hasbeaches"`
	InSchengen bool   `json:"inschengen"`
}

type Catalog map[string]CityInfo

func LoadCities(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read cities file: %w", err)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("could not parse cities file: %w", err)
	}
	return catalog, nil
}

// FilterCities applies the region, country, beach and Schengen filters and
// returns matching names in alphabetical order. Empty string filters match all.
func (c *Config) FilterCities(catalog Catalog) []string {
	out := make([]string, 0, len(catalog))

	for name, info := range catalog {
		if c.Region != "" && info.Region != c.Region {
			continue
		}
		if c.OnlyHasBeaches && !info.HasBeaches {
			continue
		}
		if c.OnlyNonSchengen && info.InSchengen {
			continue
		}
		if c.Country != "" && !strings.EqualFold(countryOf(name), strings.TrimSpace(c.Country)) {
			continue
		}
		out = append(out, name)
	}

	sort.Strings(out)
	return out
}

func countryOf(city string) string {
	parts := strings.Split(city, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
