package tiingo

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/tickerpulse/internal/domain/models"
	"github.com/guttosm/tickerpulse/internal/logger"
)

// FetchRequest describes one historical-prices batch.
//
// Zero values resolve to the documented defaults in Normalize():
// StartDate → 2000-01-01, EndDate → today, Frequency → daily.
// FullColumns=false (the default) keeps only the adjusted-close column per
// ticker; true carries every parsed column.
type FetchRequest struct {
	Tickers     []string
	StartDate   time.Time
	EndDate     time.Time
	Frequency   models.Frequency
	FullColumns bool
}

// Normalize applies defaults and validates the request: tickers are
// upper-cased and de-duplicated preserving order, dates are resolved, and a
// start date after the end date is rejected.
func (r FetchRequest) Normalize() (FetchRequest, error) {
	seen := make(map[string]struct{}, len(r.Tickers))
	tickers := make([]string, 0, len(r.Tickers))
	for _, t := range r.Tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tickers = append(tickers, t)
	}
	if len(tickers) == 0 {
		return r, fmt.Errorf("no tickers requested")
	}
	r.Tickers = tickers

	if r.StartDate.IsZero() {
		r.StartDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if r.EndDate.IsZero() {
		r.EndDate = time.Now()
	}
	r.StartDate = models.Midnight(r.StartDate)
	r.EndDate = models.Midnight(r.EndDate)
	if r.StartDate.After(r.EndDate) {
		return r, fmt.Errorf("start date %s after end date %s",
			r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout))
	}

	if r.Frequency == "" {
		r.Frequency = models.FrequencyDaily
	}
	if !r.Frequency.Valid() {
		return r, fmt.Errorf("unknown frequency %q", r.Frequency)
	}
	return r, nil
}

// FetchSeries fetches every requested ticker concurrently and returns one
// slot per ticker, in request order. A ticker that fails (transport error,
// non-2xx status, or unparseable body) is logged and left nil; it never
// fails the batch. Concurrency is bounded by the client's worker pool size.
func (c *Client) FetchSeries(ctx context.Context, req FetchRequest) ([]*models.PriceSeries, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	maxParallel := c.maxParallel
	if len(req.Tickers) < maxParallel {
		maxParallel = len(req.Tickers)
	}

	results := make([]*models.PriceSeries, len(req.Tickers))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxParallel)

	for i, ticker := range req.Tickers {
		idx := i
		tk := ticker
		sem <- struct{}{}

		g.Go(func() error {
			defer func() { <-sem }()
			series, err := c.fetchOne(gctx, tk, req)
			if err != nil {
				logger.L().Warn().Str("ticker", tk).Err(err).Msg("ticker fetch failed")
				return nil
			}
			results[idx] = series
			return nil
		})
	}

	_ = g.Wait() // tasks never return errors; failures are absorbed per ticker
	return results, nil
}

// fetchOne builds the URL, issues the authenticated GET, and parses the body.
func (c *Client) fetchOne(ctx context.Context, ticker string, req FetchRequest) (*models.PriceSeries, error) {
	u := c.BuildRequestURL(ticker, req.StartDate, req.EndDate, req.Frequency)

	httpReq, err := c.newRequest(ctx, u)
	if err != nil {
		return nil, &FetchError{Ticker: ticker, Err: err}
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &FetchError{Ticker: ticker, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Ticker: ticker, Status: resp.StatusCode}
	}

	series, err := parsePriceCSV(ticker, resp.Body)
	if err != nil {
		return nil, &FetchError{Ticker: ticker, Err: err}
	}
	return series, nil
}

// FetchHistorical is the one-call surface: concurrent fetch followed by the
// merge. It returns nil (with no error) when a single requested ticker failed,
// and a zero-column table when every ticker of a multi-ticker batch failed.
func (c *Client) FetchHistorical(ctx context.Context, req FetchRequest) (*models.Table, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	series, err := c.FetchSeries(ctx, req)
	if err != nil {
		return nil, err
	}
	return Merge(req, series), nil
}

// Merge folds per-ticker fetch results into one table. Completion order is
// irrelevant: results are keyed by ticker, and failed slots are simply absent.
//
// Single-ticker requests return that series' own table (its own date index,
// columns named by field) or nil if the fetch failed. Multi-ticker requests
// return a table spanning every calendar day of the requested range with one
// adjusted-close column per ticker, or, with FullColumns, every parsed
// column namespaced "TICKER.field".
func Merge(req FetchRequest, series []*models.PriceSeries) *models.Table {
	if len(req.Tickers) == 1 {
		if len(series) == 0 || series[0] == nil {
			return nil
		}
		return singleTable(series[0], req.FullColumns)
	}

	table := models.NewTable(models.DateRange(req.StartDate, req.EndDate))
	ok := 0
	for _, s := range series {
		if s == nil {
			continue
		}
		ok++
		if req.FullColumns {
			for _, f := range s.Fields {
				_ = table.AddAligned(s.Ticker+"."+f, s.Dates(), s.Values(f))
			}
		} else {
			_ = table.AddAligned(s.Ticker, s.Dates(), s.Values("adjClose"))
		}
	}

	if table.NumColumns() == 0 {
		logger.L().Warn().Int("tickers", len(req.Tickers)).Msg("no ticker fetch succeeded; returning empty table")
	} else {
		logger.L().Info().Int("succeeded", ok).Int("requested", len(req.Tickers)).Msg("tickers merged")
	}
	return table
}

// singleTable builds a table straight from one series, keeping its own index.
func singleTable(s *models.PriceSeries, full bool) *models.Table {
	table := models.NewTable(s.Dates())
	if full {
		for _, f := range s.Fields {
			_ = table.AddFloats(f, s.Values(f))
		}
	} else {
		_ = table.AddFloats("adjClose", s.Values("adjClose"))
	}
	return table
}
