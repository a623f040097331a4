package services

import (
	"destination-finder/models"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// CityEntry is one report line; entries are printed in the order given.
type CityEntry struct {
	City string
	models.CityResult
}

type ReportOptions struct {
	MaxPricePerNight float64
	NthCheapest      *int
	BottomPercentile *float64
	ShowAverage      bool
	ShowTemp         bool
	ShowSecondary    bool
	SecondaryLabel   string
	Currency         string
}

type column struct {
	title string
	value func(e CityEntry) string
}

func (o ReportOptions) columns() []column {
	cols := []column{
		{"City", func(e CityEntry) string { return e.City }},
		{fmt.Sprintf("#Units < %s/night", money(o.Currency, &o.MaxPricePerNight, 0)),
			func(e CityEntry) string { return fmt.Sprint(e.UnitCount) }},
		{"Median Price", func(e CityEntry) string { return money(o.Currency, e.MedianPrice, 2) }},
	}

	if o.NthCheapest != nil {
		cols = append(cols, column{ordinal(*o.NthCheapest) + " Cheapest",
			func(e CityEntry) string { return money(o.Currency, e.NthCheapestPrice, 2) }})
	}
	if o.BottomPercentile != nil {
		cols = append(cols, column{"Bottom " + ordinalFloat(*o.BottomPercentile) + " Percentile",
			func(e CityEntry) string { return money(o.Currency, e.PercentilePrice, 2) }})
	}
	if o.ShowAverage {
		cols = append(cols, column{"Average Price",
			func(e CityEntry) string { return money(o.Currency, e.AveragePrice, 2) }})
	}
	if o.ShowTemp {
		cols = append(cols, column{"Temp (°C)", func(e CityEntry) string { return number(e.Temperature, 1) }})
	}
	if o.ShowSecondary {
		label := o.SecondaryLabel
		if label == "" {
			label = "Dew Point (°C)"
		}
		cols = append(cols, column{label, func(e CityEntry) string { return number(e.Secondary, 1) }})
	}
	return cols
}

// PrintReport draws the city table. Absent values print as "-".
func PrintReport(w io.Writer, entries []CityEntry, opts ReportOptions) {
	cols := opts.columns()

	cells := make([][]string, len(entries))
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = utf8.RuneCountInString(c.title)
	}
	for r, e := range entries {
		cells[r] = make([]string, len(cols))
		for i, c := range cols {
			cells[r][i] = c.value(e)
			if n := utf8.RuneCountInString(cells[r][i]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	border := func(left, mid, right string) {
		parts := make([]string, len(widths))
		for i, wd := range widths {
			parts[i] = strings.Repeat("─", wd+2)
		}
		fmt.Fprintln(w, left+strings.Join(parts, mid)+right)
	}
	row := func(values []string) {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = " " + pad(v, widths[i]) + " "
		}
		fmt.Fprintln(w, "│"+strings.Join(parts, "│")+"│")
	}

	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
	}

	fmt.Fprintln(w)
	border("┌", "┬", "┐")
	row(titles)
	border("├", "┼", "┤")
	for _, r := range cells {
		row(r)
	}
	border("└", "┴", "┘")
}

// RenderHistogram draws one bar per bucket, scaled so the fullest bucket
// spans width characters. Buckets above maxPrice are drawn with a lighter
// shade.
func RenderHistogram(w io.Writer, city string, h models.PriceHistogram, maxPrice float64, width int) {
	prices, err := BucketPrices(h)
	if err != nil {
		fmt.Fprintf(w, "%s: no histogram (%v)\n", city, err)
		return
	}
	if width <= 0 {
		width = 40
	}

	peak := 0
	for _, c := range h.Counts {
		peak = max(peak, c)
	}

	fmt.Fprintf(w, "\n%s (%d listings)\n", city, h.Total())
	for i, count := range h.Counts {
		bar := 0
		if peak > 0 {
			bar = count * width / peak
			if count > 0 && bar == 0 {
				bar = 1
			}
		}
		shade := "█"
		if prices[i] > maxPrice {
			shade = "░"
		}
		fmt.Fprintf(w, "%10s │%s %d\n", decimal.NewFromFloat(prices[i]).StringFixed(0), strings.Repeat(shade, bar), count)
	}
}

func money(currency string, v *float64, places int32) string {
	if v == nil {
		return "-"
	}
	symbol := "$"
	if currency != "" && !strings.HasSuffix(currency, "D") {
		symbol = currency + " "
	}
	return symbol + decimal.NewFromFloat(*v).StringFixed(places)
}

func number(v *float64, places int32) string {
	if v == nil {
		return "-"
	}
	return decimal.NewFromFloat(*v).StringFixed(places)
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func ordinalFloat(v float64) string {
	if v == float64(int(v)) {
		return ordinal(int(v))
	}
	return decimal.NewFromFloat(v).String() + "th"
}
