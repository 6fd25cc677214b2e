package main

//
//  @title           tickerpulse API
//  @version         1.0
//  @description     Historical price fetch & returns service.
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/tickerpulse
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        prices
//  @tag.description Endpoints for fetching historical price tables
//
//  @tag.name        returns
//  @tag.description Endpoints for computing price returns
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/guttosm/tickerpulse/config"
	_ "github.com/guttosm/tickerpulse/docs" // swagger docs
	"github.com/guttosm/tickerpulse/internal/app"
	"github.com/guttosm/tickerpulse/internal/domain/models"
	"github.com/guttosm/tickerpulse/internal/logger"
	"github.com/guttosm/tickerpulse/internal/returns"
	"github.com/guttosm/tickerpulse/internal/service"
	"github.com/guttosm/tickerpulse/internal/storage"
	"github.com/guttosm/tickerpulse/internal/tiingo"
)

const dateLayout = "2006-01-02"

// startServer initializes and starts the HTTP server in a separate goroutine.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown terminates the HTTP server and runs the cleanup callback
// when SIGINT or SIGTERM is received.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// newClient builds the API client from the loaded configuration.
func newClient(parallel int) *tiingo.Client {
	cfg := config.AppConfig.Tiingo
	if parallel > 0 {
		cfg.MaxParallel = parallel
	}
	client, err := tiingo.New(tiingo.Config{
		TokenFile:   cfg.TokenFile,
		BaseURL:     cfg.BaseURL,
		TestURL:     cfg.TestURL,
		Timeout:     cfg.Timeout,
		MaxParallel: cfg.MaxParallel,
	})
	if err != nil {
		logger.L().Fatal().Err(err).Msg("client init failed")
	}
	return client
}

// parseDateFlag parses an optional YYYY-MM-DD flag value.
func parseDateFlag(name, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		logger.L().Fatal().Str("flag", name).Str("value", value).Msg("invalid date, expected YYYY-MM-DD")
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// main is the entry point of the tickerpulse application.
//
// Modes (selected via --mode flag):
//   - probe:   Run an authenticated health-check against the pricing API.
//   - fetch:   Fetch historical prices and write the merged table as CSV to stdout.
//   - returns: Fetch prices, compute returns, and write them as CSV to stdout.
//   - api:     Start the REST API exposing the same operations.
func main() {
	ctx := context.Background()

	config.LoadConfig()
	logger.Init()

	mode := flag.String("mode", "fetch", "Mode: probe, fetch, returns or api")
	tickers := flag.String("tickers", "", "Comma-separated ticker symbols")
	start := flag.String("start", "", "Start date YYYY-MM-DD (default 2000-01-01)")
	end := flag.String("end", "", "End date YYYY-MM-DD (default today)")
	freq := flag.String("freq", "", "Resample frequency: daily, weekly, monthly or annually")
	full := flag.Bool("full", false, "Keep all price columns instead of adjusted close only")
	columns := flag.String("columns", "", "Restrict returns to these comma-separated columns")
	logReturns := flag.Bool("log-returns", false, "Compute logarithmic instead of simple returns")
	parallel := flag.Int("parallel", 0, "Fetch worker pool size (0=one per CPU)")
	persist := flag.Bool("persist", false, "Store fetched bars in Postgres")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "probe":
		client := newClient(*parallel)
		status := client.TestConnection(ctx)
		if !status.OK {
			os.Exit(1)
		}

	case "fetch", "returns":
		client := newClient(*parallel)
		req := tiingo.FetchRequest{
			Tickers:     splitCSV(*tickers),
			StartDate:   parseDateFlag("start", *start),
			EndDate:     parseDateFlag("end", *end),
			Frequency:   models.Frequency(*freq),
			FullColumns: *full,
		}

		var repo storage.PricesRepository
		if *persist {
			db, err := app.InitPostgres(config.AppConfig)
			if err != nil {
				logger.L().Fatal().Err(err).Msg("db connect error")
			}
			defer func() { _ = db.Close() }()
			repo = storage.NewPricesRepository(db)
		}
		svc := service.NewPriceService(client, repo)

		table, err := svc.GetPrices(ctx, req)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("fetch failed")
		}
		if table == nil {
			logger.L().Fatal().Str("tickers", *tickers).Msg("no data returned")
		}

		if *mode == "returns" {
			table, err = returns.Compute(table, splitCSV(*columns), *logReturns)
			if err != nil {
				logger.L().Fatal().Err(err).Msg("returns computation failed")
			}
		}

		if err := table.WriteCSV(os.Stdout); err != nil {
			logger.L().Fatal().Err(err).Msg("write csv failed")
		}

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
