package models

import "time"

// Frequency is the resampling granularity of a price series.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyAnnually Frequency = "annually"
)

// Valid reports whether f is one of the recognized resampling frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyAnnually:
		return true
	}
	return false
}

// PriceBar represents a single dated price observation for one ticker.
// Field names mirror the columns of the provider's CSV payload
// (date, open, high, low, close, volume, adjusted variants, corporate actions).
type PriceBar struct {
	Date        time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	AdjOpen     float64
	AdjHigh     float64
	AdjLow      float64
	AdjClose    float64
	AdjVolume   float64
	DivCash     float64
	SplitFactor float64
}

// Value returns the named numeric field of the bar. The second return is
// false when the field name is not a known price column.
func (b PriceBar) Value(field string) (float64, bool) {
	switch field {
	case "open":
		return b.Open, true
	case "high":
		return b.High, true
	case "low":
		return b.Low, true
	case "close":
		return b.Close, true
	case "volume":
		return b.Volume, true
	case "adjOpen":
		return b.AdjOpen, true
	case "adjHigh":
		return b.AdjHigh, true
	case "adjLow":
		return b.AdjLow, true
	case "adjClose":
		return b.AdjClose, true
	case "adjVolume":
		return b.AdjVolume, true
	case "divCash":
		return b.DivCash, true
	case "splitFactor":
		return b.SplitFactor, true
	}
	return 0, false
}

// SetValue assigns the named numeric field of the bar. Unknown fields are ignored
// and reported via the boolean return.
func (b *PriceBar) SetValue(field string, v float64) bool {
	switch field {
	case "open":
		b.Open = v
	case "high":
		b.High = v
	case "low":
		b.Low = v
	case "close":
		b.Close = v
	case "volume":
		b.Volume = v
	case "adjOpen":
		b.AdjOpen = v
	case "adjHigh":
		b.AdjHigh = v
	case "adjLow":
		b.AdjLow = v
	case "adjClose":
		b.AdjClose = v
	case "adjVolume":
		b.AdjVolume = v
	case "divCash":
		b.DivCash = v
	case "splitFactor":
		b.SplitFactor = v
	default:
		return false
	}
	return true
}

// PriceSeries is the parsed price history of a single ticker.
//
// Invariant (enforced by the response parser): Bars are sorted by date in
// strictly increasing order with no duplicate dates.
//
// Fields lists the numeric columns that were present in the provider response,
// in header order, with the date column excluded. A merged table built from
// this series only carries the columns the provider actually returned.
type PriceSeries struct {
	Ticker string
	Fields []string
	Bars   []PriceBar
}

// Dates returns the series index as a slice of calendar dates.
func (s *PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Date
	}
	return out
}

// Values returns the column of the named field, aligned with Dates().
func (s *PriceSeries) Values(field string) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		v, _ := b.Value(field)
		out[i] = v
	}
	return out
}
