package services

import (
	"destination-finder/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestBucketPrices(t *testing.T) {
	prices, err := BucketPrices(models.PriceHistogram{Counts: []int{2, 4, 4, 0, 0}, MinValue: 100, MaxValue: 140})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{100, 110, 120, 130, 140}, prices, 1e-9)
}

func TestBucketPrices_TooFewBuckets(t *testing.T) {
	for _, counts := range [][]int{nil, {}, {5}} {
		_, err := BucketPrices(models.PriceHistogram{Counts: counts, MinValue: 10, MaxValue: 20})
		assert.ErrorIs(t, err, models.ErrMalformedHistogram)
	}
}

func TestComputeStatistics_Scenario(t *testing.T) {
	h := models.PriceHistogram{Counts: []int{2, 4, 4, 0, 0}, MinValue: 100, MaxValue: 140}
	params := models.SearchParams{
		MaxPricePerNight: 115,
		NthCheapest:      intPtr(2),
		BottomPercentile: floatPtr(30),
	}

	stats, err := ComputeStatistics(h, params)
	require.NoError(t, err)

	require.NotNil(t, stats.MedianPrice)
	require.NotNil(t, stats.NthCheapestPrice)
	require.NotNil(t, stats.PercentilePrice)
	assert.InDelta(t, 110, *stats.MedianPrice, 1e-9)
	assert.InDelta(t, 100, *stats.NthCheapestPrice, 1e-9)
	assert.InDelta(t, 110, *stats.PercentilePrice, 1e-9)
	assert.Equal(t, 6, stats.FilteredCount)
}

func TestComputeStatistics_EmptyHistogram(t *testing.T) {
	h := models.PriceHistogram{Counts: []int{0, 0, 0}, MinValue: 50, MaxValue: 150}
	params := models.SearchParams{
		MaxPricePerNight: 1000,
		NthCheapest:      intPtr(3),
		BottomPercentile: floatPtr(10),
	}

	stats, err := ComputeStatistics(h, params)
	require.NoError(t, err)
	assert.Zero(t, stats.FilteredCount)
	assert.Nil(t, stats.MedianPrice)
	assert.Nil(t, stats.NthCheapestPrice)
	assert.Nil(t, stats.PercentilePrice)
}

func TestComputeStatistics_OptionalStatsUnset(t *testing.T) {
	h := models.PriceHistogram{Counts: []int{1, 1}, MinValue: 10, MaxValue: 20}

	stats, err := ComputeStatistics(h, models.SearchParams{MaxPricePerNight: 5})
	require.NoError(t, err)
	require.NotNil(t, stats.MedianPrice)
	assert.InDelta(t, 10, *stats.MedianPrice, 1e-9)
	assert.Nil(t, stats.NthCheapestPrice)
	assert.Nil(t, stats.PercentilePrice)
	assert.Zero(t, stats.FilteredCount)
}

func TestComputeStatistics_NthCheapestClampedToTotal(t *testing.T) {
	h := models.PriceHistogram{Counts: []int{1, 0, 2, 0}, MinValue: 0, MaxValue: 30}

	stats, err := ComputeStatistics(h, models.SearchParams{NthCheapest: intPtr(50)})
	require.NoError(t, err)
	require.NotNil(t, stats.NthCheapestPrice)
	assert.InDelta(t, 20, *stats.NthCheapestPrice, 1e-9)
}

func TestComputeStatistics_Malformed(t *testing.T) {
	_, err := ComputeStatistics(models.PriceHistogram{Counts: []int{3}}, models.SearchParams{})
	assert.ErrorIs(t, err, models.ErrMalformedHistogram)

	_, err = ComputeStatistics(models.PriceHistogram{Counts: []int{3, -1}}, models.SearchParams{})
	assert.ErrorIs(t, err, models.ErrMalformedHistogram)
}

func TestComputeStatistics_MedianFirstCrossing(t *testing.T) {
	histograms := [][]int{
		{1, 1},
		{0, 0, 7},
		{5, 0, 0, 5},
		{3, 1, 4, 1, 5, 9, 2, 6},
		{0, 2, 0, 0, 1, 1, 0, 8},
	}

	for _, counts := range histograms {
		h := models.PriceHistogram{Counts: counts, MinValue: 20, MaxValue: 90}
		prices, err := BucketPrices(h)
		require.NoError(t, err)

		stats, err := ComputeStatistics(h, models.SearchParams{})
		require.NoError(t, err)
		require.NotNil(t, stats.MedianPrice, "counts %v", counts)

		total := float64(h.Total())
		cumulative := 0
		for i, c := range counts {
			before := cumulative
			cumulative += c
			if prices[i] == *stats.MedianPrice {
				assert.GreaterOrEqual(t, float64(cumulative), total/2, "counts %v", counts)
				assert.Less(t, float64(before), total/2, "counts %v", counts)
				break
			}
		}
	}
}

func TestComputeStatistics_PercentileMonotonic(t *testing.T) {
	h := models.PriceHistogram{Counts: []int{4, 0, 3, 7, 1, 0, 2, 9, 1, 3}, MinValue: 35, MaxValue: 410}

	last := -1.0
	for p := 0.0; p <= 100; p += 2.5 {
		stats, err := ComputeStatistics(h, models.SearchParams{BottomPercentile: floatPtr(p)})
		require.NoError(t, err)
		require.NotNil(t, stats.PercentilePrice, "percentile %v", p)
		assert.GreaterOrEqual(t, *stats.PercentilePrice, last, "percentile %v", p)
		last = *stats.PercentilePrice
	}
}

func TestWeightedAverage(t *testing.T) {
	h := models.PriceHistogram{Counts: []int{2, 4, 4, 0, 0}, MinValue: 100, MaxValue: 140}

	avg, err := WeightedAverage(h)
	require.NoError(t, err)
	assert.InDelta(t, 112, avg, 1e-9)
}

func TestWeightedAverage_SingleBucket(t *testing.T) {
	h := models.PriceHistogram{Counts: []int{0, 0, 7, 0}, MinValue: 0.1, MaxValue: 0.7}
	prices, err := BucketPrices(h)
	require.NoError(t, err)

	avg, err := WeightedAverage(h)
	require.NoError(t, err)
	assert.Equal(t, prices[2], avg)
}

func TestWeightedAverage_Empty(t *testing.T) {
	_, err := WeightedAverage(models.PriceHistogram{Counts: []int{0, 0}, MinValue: 1, MaxValue: 2})
	assert.ErrorIs(t, err, models.ErrEmptyHistogram)

	_, err = WeightedAverage(models.PriceHistogram{Counts: []int{4}})
	assert.ErrorIs(t, err, models.ErrMalformedHistogram)
}
