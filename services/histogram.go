package services

import (
	"destination-finder/models"
	"fmt"
	"math"
)

// Statistics are the price points derived from one histogram. Nil pointers
// mean the statistic is undefined, e.g. the search found no listings.
type Statistics struct {
	FilteredCount    int
	MedianPrice      *float64
	NthCheapestPrice *float64
	PercentilePrice  *float64
}

// BucketPrices returns the price at each bucket, from MinValue to MaxValue.
func BucketPrices(h models.PriceHistogram) ([]float64, error) {
	n := len(h.Counts)
	if n < 2 {
		return nil, fmt.Errorf("%w: %d buckets", models.ErrMalformedHistogram, n)
	}

	step := (h.MaxValue - h.MinValue) / float64(n-1)
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = h.MinValue + float64(i)*step
	}
	return prices, nil
}

// ComputeStatistics walks the buckets once in ascending price order. Each
// statistic is the price of the first bucket whose cumulative count reaches
// its threshold; later buckets never overwrite it.
func ComputeStatistics(h models.PriceHistogram, params models.SearchParams) (Statistics, error) {
	prices, err := BucketPrices(h)
	if err != nil {
		return Statistics{}, err
	}

	for _, c := range h.Counts {
		if c < 0 {
			return Statistics{}, fmt.Errorf("%w: negative bucket count %d", models.ErrMalformedHistogram, c)
		}
	}

	var stats Statistics
	total := h.Total()
	cumulative := 0

	for i, count := range h.Counts {
		price := prices[i]
		cumulative += count

		if price <= params.MaxPricePerNight {
			stats.FilteredCount += count
		}

		if total == 0 {
			continue
		}

		if stats.MedianPrice == nil && float64(cumulative) >= float64(total)/2 {
			stats.MedianPrice = ptr(price)
		}
		if stats.NthCheapestPrice == nil && params.NthCheapest != nil &&
			cumulative >= min(*params.NthCheapest, total) {
			stats.NthCheapestPrice = ptr(price)
		}
		if stats.PercentilePrice == nil && params.BottomPercentile != nil &&
			float64(cumulative) >= float64(total)*(*params.BottomPercentile/100) {
			stats.PercentilePrice = ptr(price)
		}
	}

	return stats, nil
}

// WeightedAverage is the count-weighted mean bucket price.
func WeightedAverage(h models.PriceHistogram) (float64, error) {
	prices, err := BucketPrices(h)
	if err != nil {
		return 0, err
	}

	// Running mean: a histogram with a single occupied bucket yields that
	// bucket's price exactly.
	var avg float64
	total := 0
	for i, count := range h.Counts {
		if count <= 0 {
			continue
		}
		total += count
		avg += (prices[i] - avg) * (float64(count) / float64(total))
	}
	if total == 0 {
		return 0, models.ErrEmptyHistogram
	}

	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0, fmt.Errorf("%w: average is not finite", models.ErrMalformedHistogram)
	}
	return avg, nil
}

func ptr(v float64) *float64 {
	return &v
}
