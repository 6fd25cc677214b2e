package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/tickerpulse/internal/domain/dto"
	"github.com/guttosm/tickerpulse/internal/domain/models"
	"github.com/guttosm/tickerpulse/internal/returns"
	"github.com/guttosm/tickerpulse/internal/service"
	"github.com/guttosm/tickerpulse/internal/tiingo"
)

const dateLayout = "2006-01-02"

// Handler provides HTTP handlers for the price and returns endpoints.
//
// Responsibilities:
//   - Validate incoming query parameters.
//   - Delegate to the service layer.
//   - Translate tables and errors into response DTOs with the right status.
type Handler struct {
	svc service.PriceService
}

// NewHandler constructs a Handler around the given service.
func NewHandler(svc service.PriceService) *Handler {
	return &Handler{svc: svc}
}

// parseFetchRequest extracts the shared fetch parameters from the query
// string. A non-nil error was already written to the context as a 400.
func (h *Handler) parseFetchRequest(c *gin.Context) (tiingo.FetchRequest, bool) {
	var req tiingo.FetchRequest

	raw := strings.TrimSpace(c.Query("tickers"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("tickers is required", nil))
		return req, false
	}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			req.Tickers = append(req.Tickers, t)
		}
	}

	if s := c.Query("start"); s != "" {
		parsed, err := time.Parse(dateLayout, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid start, expected YYYY-MM-DD", err))
			return req, false
		}
		req.StartDate = parsed
	}
	if s := c.Query("end"); s != "" {
		parsed, err := time.Parse(dateLayout, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid end, expected YYYY-MM-DD", err))
			return req, false
		}
		req.EndDate = parsed
	}

	if s := c.Query("freq"); s != "" {
		req.Frequency = models.Frequency(s)
		if !req.Frequency.Valid() {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("unknown freq", nil))
			return req, false
		}
	}
	if s := c.Query("full"); s != "" {
		full, err := strconv.ParseBool(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid full, expected boolean", err))
			return req, false
		}
		req.FullColumns = full
	}

	return req, true
}

// GetPrices handles GET /api/v1/prices requests.
//
// GetPrices godoc
// @Summary      Fetch historical prices
// @Description  Fetches historical prices for one or more tickers and returns the merged date-indexed table
// @Tags         prices
// @Produce      json
// @Param        tickers  query     string  true   "Comma-separated tickers" example(AAPL,MSFT)
// @Param        start    query     string  false  "Start date YYYY-MM-DD" example(2020-01-01)
// @Param        end      query     string  false  "End date YYYY-MM-DD" example(2020-12-31)
// @Param        freq     query     string  false  "daily|weekly|monthly|annually" example(daily)
// @Param        full     query     bool    false  "Carry all price columns instead of adjusted close only"
// @Success      200      {object}  dto.TableResponse   "Success"
// @Failure      400      {object}  dto.ErrorResponse   "Bad Request"
// @Failure      404      {object}  dto.ErrorResponse   "Not Found"
// @Failure      500      {object}  dto.ErrorResponse   "Internal Error"
// @Router       /api/v1/prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	req, ok := h.parseFetchRequest(c)
	if !ok {
		return
	}

	table, err := h.svc.GetPrices(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid fetch request", err))
		return
	}
	if table == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("no data for ticker", nil))
		return
	}

	c.JSON(http.StatusOK, dto.NewTableResponse(req.Tickers, freqOf(req), table))
}

// GetReturns handles GET /api/v1/returns requests.
//
// GetReturns godoc
// @Summary      Compute price returns
// @Description  Fetches historical prices and derives simple or logarithmic period-over-period returns
// @Tags         returns
// @Produce      json
// @Param        tickers  query     string  true   "Comma-separated tickers" example(AAPL,MSFT)
// @Param        start    query     string  false  "Start date YYYY-MM-DD" example(2020-01-01)
// @Param        end      query     string  false  "End date YYYY-MM-DD" example(2020-12-31)
// @Param        freq     query     string  false  "daily|weekly|monthly|annually" example(daily)
// @Param        log      query     bool    false  "Logarithmic returns instead of simple"
// @Param        columns  query     string  false  "Restrict to these columns" example(AAPL)
// @Success      200      {object}  dto.TableResponse   "Success"
// @Failure      400      {object}  dto.ErrorResponse   "Bad Request"
// @Failure      422      {object}  dto.ErrorResponse   "Validation failed"
// @Failure      500      {object}  dto.ErrorResponse   "Internal Error"
// @Router       /api/v1/returns [get]
func (h *Handler) GetReturns(c *gin.Context) {
	req, ok := h.parseFetchRequest(c)
	if !ok {
		return
	}

	useLog := false
	if s := c.Query("log"); s != "" {
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid log, expected boolean", err))
			return
		}
		useLog = parsed
	}
	var columns []string
	if s := strings.TrimSpace(c.Query("columns")); s != "" {
		for _, col := range strings.Split(s, ",") {
			if col = strings.TrimSpace(col); col != "" {
				columns = append(columns, col)
			}
		}
	}

	table, err := h.svc.GetReturns(c.Request.Context(), req, columns, useLog)
	if err != nil {
		var verr *returns.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse("returns validation failed", err))
			return
		}
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid fetch request", err))
		return
	}

	c.JSON(http.StatusOK, dto.NewTableResponse(req.Tickers, freqOf(req), table))
}

func freqOf(req tiingo.FetchRequest) string {
	if req.Frequency == "" {
		return string(models.FrequencyDaily)
	}
	return string(req.Frequency)
}
