package pipeline

import (
	"destination-finder/models"
	"sort"
)

// Run is the outcome of one batch. Map iteration order carries no meaning;
// use Sorted for display.
type Run struct {
	Cities   map[string]models.CityResult
	Failed   map[string]error
	Excluded []string
}

func newRun() *Run {
	return &Run{
		Cities: make(map[string]models.CityResult),
		Failed: make(map[string]error),
	}
}

type SortKey int

const (
	ByMedian SortKey = iota
	ByAverage
)

type NamedResult struct {
	City string
	models.CityResult
}

// Sorted orders included cities by price ascending. Cities without the
// chosen price sort last; ties fall back to the city name.
func (r *Run) Sorted(by SortKey) []NamedResult {
	out := make([]NamedResult, 0, len(r.Cities))
	for city, res := range r.Cities {
		out = append(out, NamedResult{City: city, CityResult: res})
	}

	price := func(n NamedResult) *float64 {
		if by == ByAverage {
			return n.AveragePrice
		}
		return n.MedianPrice
	}

	sort.Slice(out, func(i, j int) bool {
		pi, pj := price(out[i]), price(out[j])
		switch {
		case pi == nil && pj == nil:
			return out[i].City < out[j].City
		case pi == nil:
			return false
		case pj == nil:
			return true
		case *pi == *pj:
			return out[i].City < out[j].City
		}
		return *pi < *pj
	})

	return out
}
