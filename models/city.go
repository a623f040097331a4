package models

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// PriceHistogram is the bucketed price summary returned by the listing search.
// Buckets are evenly spaced across [MinValue, MaxValue], both inclusive.
type PriceHistogram struct {
	Counts   []int
	MinValue float64
	MaxValue float64
}

func (h PriceHistogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// PerNight rescales the range from whole-stay prices to nightly prices.
func (h PriceHistogram) PerNight(nights int) PriceHistogram {
	if nights <= 1 {
		return h
	}
	return PriceHistogram{
		Counts:   h.Counts,
		MinValue: h.MinValue / float64(nights),
		MaxValue: h.MaxValue / float64(nights),
	}
}

type DateRange struct {
	Start time.Time
	End   time.Time
}

func (d DateRange) Nights() int {
	return int(d.End.Sub(d.Start).Hours() / 24)
}

func (d DateRange) String() string {
	return d.Start.Format(DateLayout) + ".." + d.End.Format(DateLayout)
}

// PreviousYear shifts both ends back one calendar year.
func (d DateRange) PreviousYear() DateRange {
	return DateRange{Start: d.Start.AddDate(-1, 0, 0), End: d.End.AddDate(-1, 0, 0)}
}

// SearchParams is built once per run from configuration and never mutated.
type SearchParams struct {
	Bedrooms           int
	Dates              DateRange
	Adults             int
	MaxPricePerNight   float64
	StayDurationNights int
	NthCheapest        *int
	BottomPercentile   *float64
}

func (p SearchParams) Validate() error {
	switch {
	case p.Bedrooms < 0:
		return fmt.Errorf("%w: bedrooms must be >= 0, got %d", ErrInvalidParams, p.Bedrooms)
	case p.Adults < 1:
		return fmt.Errorf("%w: adults must be >= 1, got %d", ErrInvalidParams, p.Adults)
	case p.StayDurationNights < 1:
		return fmt.Errorf("%w: stay duration must be >= 1 night, got %d", ErrInvalidParams, p.StayDurationNights)
	case !p.Dates.End.After(p.Dates.Start):
		return fmt.Errorf("%w: end date %s is not after start date %s", ErrInvalidParams,
			p.Dates.End.Format(DateLayout), p.Dates.Start.Format(DateLayout))
	case p.NthCheapest != nil && *p.NthCheapest < 1:
		return fmt.Errorf("%w: nthCheapest must be >= 1, got %d", ErrInvalidParams, *p.NthCheapest)
	case p.BottomPercentile != nil && (*p.BottomPercentile < 0 || *p.BottomPercentile > 100):
		return fmt.Errorf("%w: bottomPercentile must be within 0..100, got %v", ErrInvalidParams, *p.BottomPercentile)
	}
	return nil
}

// Query is the subset of the params the price provider needs.
func (p SearchParams) Query() PriceQuery {
	return PriceQuery{
		Bedrooms:         p.Bedrooms,
		Dates:            p.Dates,
		Adults:           p.Adults,
		MaxPricePerNight: p.MaxPricePerNight,
	}
}

type PriceQuery struct {
	Bedrooms         int
	Dates            DateRange
	Adults           int
	MaxPricePerNight float64
}

// WeatherSample holds historical averages for a city. A nil field means the
// fetch failed or was rate limited; it is never replaced with a default.
type WeatherSample struct {
	Temperature *float64
	Secondary   *float64
}

func (w WeatherSample) Complete() bool {
	return w.Temperature != nil && w.Secondary != nil
}

// CityResult is created once both fetch phases finish for a city.
type CityResult struct {
	UnitCount        int
	MedianPrice      *float64
	NthCheapestPrice *float64
	PercentilePrice  *float64
	AveragePrice     *float64
	Temperature      *float64
	Secondary        *float64
	Histogram        PriceHistogram
}
