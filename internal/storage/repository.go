package storage

import (
	"database/sql"
	"math"
	"time"

	pq "github.com/lib/pq"

	"github.com/guttosm/tickerpulse/internal/domain/models"
)

// FetchLog records the last successful fetch persisted for a ticker.
type FetchLog struct {
	Ticker    string
	StartDate time.Time
	EndDate   time.Time
	RowCount  int
	FetchedAt time.Time
}

// PricesRepository defines the contract for persisting and reading fetched
// price history.
type PricesRepository interface {
	InsertBarsBatch(ticker string, bars []models.PriceBar) error
	DeleteBarsByRange(ticker string, start, end time.Time) error
	GetBars(ticker string, start, end *time.Time) ([]models.PriceBar, error)
	UpsertFetchLog(ticker string, start, end time.Time, rowCount int) error
	LastFetch(ticker string) (*FetchLog, error)
}

type pricesRepository struct {
	db *sql.DB
}

func NewPricesRepository(db *sql.DB) PricesRepository {
	return &pricesRepository{db: db}
}

// InsertBarsBatch inserts one ticker's bars in a single COPY transaction.
func (r *pricesRepository) InsertBarsBatch(ticker string, bars []models.PriceBar) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	// Bulk-load optimization; the fetch log is the source of truth for what
	// has been durably persisted.
	if _, err := tx.Exec(`SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(pq.CopyIn(
		"price_history",
		"ticker",
		"date",
		"open",
		"high",
		"low",
		"close",
		"volume",
		"adj_open",
		"adj_high",
		"adj_low",
		"adj_close",
		"adj_volume",
		"div_cash",
		"split_factor",
	))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	// NaN cells (missing values in the provider response) map to NULL.
	toNull := func(v float64) interface{} {
		if math.IsNaN(v) {
			return nil
		}
		return v
	}

	for _, b := range bars {
		if _, err := stmt.Exec(
			ticker,
			b.Date,
			toNull(b.Open),
			toNull(b.High),
			toNull(b.Low),
			toNull(b.Close),
			toNull(b.Volume),
			toNull(b.AdjOpen),
			toNull(b.AdjHigh),
			toNull(b.AdjLow),
			toNull(b.AdjClose),
			toNull(b.AdjVolume),
			toNull(b.DivCash),
			toNull(b.SplitFactor),
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.Exec(); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// DeleteBarsByRange removes a ticker's bars inside [start, end] so a refresh
// can re-insert them without duplicates.
func (r *pricesRepository) DeleteBarsByRange(ticker string, start, end time.Time) error {
	_, err := r.db.Exec(`DELETE FROM price_history WHERE ticker = $1 AND date >= $2 AND date <= $3`,
		ticker, start, end)
	return err
}

// GetBars returns a ticker's stored bars ordered by date, optionally bounded.
func (r *pricesRepository) GetBars(ticker string, start, end *time.Time) ([]models.PriceBar, error) {
	query := `
		SELECT date, open, high, low, close, volume,
		       adj_open, adj_high, adj_low, adj_close, adj_volume,
		       div_cash, split_factor
		FROM price_history
		WHERE ticker = $1`
	args := []interface{}{ticker}
	if start != nil {
		args = append(args, *start)
		query += ` AND date >= $2`
	}
	if end != nil {
		args = append(args, *end)
		if start != nil {
			query += ` AND date <= $3`
		} else {
			query += ` AND date <= $2`
		}
	}
	query += ` ORDER BY date`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	fromNull := func(v sql.NullFloat64) float64 {
		if !v.Valid {
			return math.NaN()
		}
		return v.Float64
	}

	var out []models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		var open, high, low, cls, vol, aOpen, aHigh, aLow, aClose, aVol, div, split sql.NullFloat64
		if err := rows.Scan(&b.Date, &open, &high, &low, &cls, &vol,
			&aOpen, &aHigh, &aLow, &aClose, &aVol, &div, &split); err != nil {
			return nil, err
		}
		b.Open = fromNull(open)
		b.High = fromNull(high)
		b.Low = fromNull(low)
		b.Close = fromNull(cls)
		b.Volume = fromNull(vol)
		b.AdjOpen = fromNull(aOpen)
		b.AdjHigh = fromNull(aHigh)
		b.AdjLow = fromNull(aLow)
		b.AdjClose = fromNull(aClose)
		b.AdjVolume = fromNull(aVol)
		b.DivCash = fromNull(div)
		b.SplitFactor = fromNull(split)
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpsertFetchLog records (or updates) the last persisted fetch for a ticker.
func (r *pricesRepository) UpsertFetchLog(ticker string, start, end time.Time, rowCount int) error {
	_, err := r.db.Exec(`
		INSERT INTO price_fetch_log (ticker, start_date, end_date, row_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker)
		DO UPDATE SET start_date = EXCLUDED.start_date,
					  end_date = EXCLUDED.end_date,
					  row_count = EXCLUDED.row_count,
					  fetched_at = NOW()
	`, ticker, start, end, rowCount)
	return err
}

// LastFetch returns the fetch-log entry for a ticker, or nil if none exists.
func (r *pricesRepository) LastFetch(ticker string) (*FetchLog, error) {
	var fl FetchLog
	err := r.db.QueryRow(`
		SELECT ticker, start_date, end_date, row_count, fetched_at
		FROM price_fetch_log WHERE ticker = $1
	`, ticker).Scan(&fl.Ticker, &fl.StartDate, &fl.EndDate, &fl.RowCount, &fl.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fl, nil
}
