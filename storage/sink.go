package storage

import (
	"context"
	"destination-finder/models"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Row is one city of one run, flattened for the writers.
type Row struct {
	City             string
	CheckIn          time.Time
	CheckOut         time.Time
	Bedrooms         int
	Adults           int
	MaxPricePerNight float64
	UnitCount        int
	MedianPrice      *float64
	NthCheapestPrice *float64
	PercentilePrice  *float64
	AveragePrice     *float64
	Temperature      *float64
	Secondary        *float64
}

func NewRow(city string, res models.CityResult, params models.SearchParams) Row {
	return Row{
		City:             city,
		CheckIn:          params.Dates.Start,
		CheckOut:         params.Dates.End,
		Bedrooms:         params.Bedrooms,
		Adults:           params.Adults,
		MaxPricePerNight: params.MaxPricePerNight,
		UnitCount:        res.UnitCount,
		MedianPrice:      res.MedianPrice,
		NthCheapestPrice: res.NthCheapestPrice,
		PercentilePrice:  res.PercentilePrice,
		AveragePrice:     res.AveragePrice,
		Temperature:      res.Temperature,
		Secondary:        res.Secondary,
	}
}

type Sink interface {
	Name() string
	Write(ctx context.Context, runID uuid.UUID, rows []Row) error
}

// WriteAll writes rows to every sink concurrently and returns the first
// failure. The other sinks still run to completion.
func WriteAll(ctx context.Context, runID uuid.UUID, rows []Row, sinks ...Sink) error {
	var g errgroup.Group
	for _, s := range sinks {
		s := s
		g.Go(func() error {
			if err := s.Write(ctx, runID, rows); err != nil {
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
