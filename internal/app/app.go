package app

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/tickerpulse/config"
	"github.com/guttosm/tickerpulse/internal/api"
	"github.com/guttosm/tickerpulse/internal/service"
	"github.com/guttosm/tickerpulse/internal/storage"
	"github.com/guttosm/tickerpulse/internal/tiingo"
)

// postgresOpener is an indirection for unit testing; defaults to InitPostgres.
var postgresOpener = InitPostgres

// InitializeApp sets up all application dependencies and returns a fully
// configured Gin router, a cleanup function for graceful shutdown, and any
// error encountered during initialization.
//
// Wiring order: Postgres → repository → API client → service → handlers →
// router → health probes.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	client, err := tiingo.New(tiingo.Config{
		TokenFile:   cfg.Tiingo.TokenFile,
		BaseURL:     cfg.Tiingo.BaseURL,
		TestURL:     cfg.Tiingo.TestURL,
		Timeout:     cfg.Tiingo.Timeout,
		MaxParallel: cfg.Tiingo.MaxParallel,
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to initialize API client: %w", err)
	}

	repo := storage.NewPricesRepository(db)
	svc := service.NewPriceService(client, repo)
	handler := api.NewHandler(svc)
	router := api.NewRouter(handler)

	healthHandler := api.NewHealthHandler(db.Ping)
	healthHandler.Register(router)

	cleanup := func() {
		_ = db.Close()
	}

	return router, cleanup, nil
}
