package tiingo

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guttosm/tickerpulse/internal/domain/models"
)

// knownFields is the set of numeric columns the provider may return.
// Unknown header columns are skipped rather than rejected; the date column
// and adjClose are the only hard requirements.
var knownFields = map[string]struct{}{
	"open": {}, "high": {}, "low": {}, "close": {}, "volume": {},
	"adjOpen": {}, "adjHigh": {}, "adjLow": {}, "adjClose": {}, "adjVolume": {},
	"divCash": {}, "splitFactor": {},
}

// parsePriceCSV reads one response body into a PriceSeries.
//
// It fails on:
//   - a header missing the date or adjClose column
//   - a row with the wrong column count
//   - an unparseable date or numeric cell
//   - duplicate dates
//
// It tolerates:
//   - empty numeric cells (they become NaN)
//   - unknown columns (ignored)
//
// Rows are sorted by date ascending, so the series index is strictly
// increasing after a successful parse.
func parsePriceCSV(ticker string, r io.Reader) (*models.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // length checked against the header explicitly

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateCol := -1
	fields := make([]string, 0, len(header))
	fieldCol := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "date" {
			dateCol = i
			continue
		}
		if _, ok := knownFields[h]; ok {
			fields = append(fields, h)
			fieldCol[h] = i
		}
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("response has no date column")
	}
	if _, ok := fieldCol["adjClose"]; !ok {
		return nil, fmt.Errorf("response has no adjClose column")
	}

	var bars []models.PriceBar
	line := 1 // header already read
	for {
		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read line after %d: %w", line, err)
		}
		line++

		if len(rec) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, len(header), len(rec))
		}

		var bar models.PriceBar
		ds := strings.TrimSpace(rec[dateCol])
		if len(ds) > len(dateLayout) {
			// some endpoints return full timestamps; keep the date part
			ds = ds[:len(dateLayout)]
		}
		d, err := time.Parse(dateLayout, ds)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date: %w", line, err)
		}
		bar.Date = models.Midnight(d)

		for _, f := range fields {
			s := strings.TrimSpace(rec[fieldCol[f]])
			if s == "" {
				bar.SetValue(f, math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s: %w", line, f, err)
			}
			bar.SetValue(f, v)
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("response has no data rows")
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	for i := 1; i < len(bars); i++ {
		if bars[i].Date.Equal(bars[i-1].Date) {
			return nil, fmt.Errorf("duplicate date %s", bars[i].Date.Format(dateLayout))
		}
	}

	return &models.PriceSeries{Ticker: ticker, Fields: fields, Bars: bars}, nil
}
