package service

import (
	"context"

	"github.com/guttosm/tickerpulse/internal/domain/models"
	"github.com/guttosm/tickerpulse/internal/logger"
	"github.com/guttosm/tickerpulse/internal/returns"
	"github.com/guttosm/tickerpulse/internal/storage"
	"github.com/guttosm/tickerpulse/internal/tiingo"
)

// Fetcher is the slice of the API client the service depends on.
type Fetcher interface {
	FetchSeries(ctx context.Context, req tiingo.FetchRequest) ([]*models.PriceSeries, error)
}

// PriceService exposes the business operations behind the HTTP handlers and
// the CLI: fetch-and-merge, optional persistence, and returns computation.
type PriceService interface {
	GetPrices(ctx context.Context, req tiingo.FetchRequest) (*models.Table, error)
	GetReturns(ctx context.Context, req tiingo.FetchRequest, columns []string, useLog bool) (*models.Table, error)
}

type priceService struct {
	fetcher Fetcher
	repo    storage.PricesRepository // nil disables persistence
}

// NewPriceService wires a fetcher and an optional repository. A nil repo
// turns persistence off (the CLI default).
func NewPriceService(fetcher Fetcher, repo storage.PricesRepository) PriceService {
	return &priceService{fetcher: fetcher, repo: repo}
}

// GetPrices fetches the requested tickers, persists each successful series
// when a repository is configured, and returns the merged table. Persistence
// failures are logged, never fatal, matching the fail-soft posture of the fetch.
func (s *priceService) GetPrices(ctx context.Context, req tiingo.FetchRequest) (*models.Table, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	series, err := s.fetcher.FetchSeries(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.repo != nil {
		for _, sr := range series {
			if sr == nil {
				continue
			}
			s.persist(sr, req)
		}
	}

	return tiingo.Merge(req, series), nil
}

// GetReturns fetches prices and derives returns over the merged table.
func (s *priceService) GetReturns(ctx context.Context, req tiingo.FetchRequest, columns []string, useLog bool) (*models.Table, error) {
	table, err := s.GetPrices(ctx, req)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, &returns.ValidationError{Reason: "input table is empty"}
	}
	return returns.Compute(table, columns, useLog)
}

// persist refreshes one ticker's stored range: delete, batch insert, log.
func (s *priceService) persist(sr *models.PriceSeries, req tiingo.FetchRequest) {
	if err := s.repo.DeleteBarsByRange(sr.Ticker, req.StartDate, req.EndDate); err != nil {
		logger.L().Warn().Str("ticker", sr.Ticker).Err(err).Msg("delete stored bars failed")
		return
	}
	if err := s.repo.InsertBarsBatch(sr.Ticker, sr.Bars); err != nil {
		logger.L().Warn().Str("ticker", sr.Ticker).Err(err).Msg("persist bars failed")
		return
	}
	if err := s.repo.UpsertFetchLog(sr.Ticker, req.StartDate, req.EndDate, len(sr.Bars)); err != nil {
		logger.L().Warn().Str("ticker", sr.Ticker).Err(err).Msg("update fetch log failed")
	}
}
