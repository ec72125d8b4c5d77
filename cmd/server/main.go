package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/stock-scorecard/internal/cache"
	"github.com/aristath/stock-scorecard/internal/clients/edgar"
	"github.com/aristath/stock-scorecard/internal/clients/finnhub"
	"github.com/aristath/stock-scorecard/internal/clients/yahoo"
	"github.com/aristath/stock-scorecard/internal/config"
	"github.com/aristath/stock-scorecard/internal/database"
	"github.com/aristath/stock-scorecard/internal/marketcal"
	"github.com/aristath/stock-scorecard/internal/modules/benchmarks"
	"github.com/aristath/stock-scorecard/internal/modules/earnings"
	"github.com/aristath/stock-scorecard/internal/modules/fundamentals"
	"github.com/aristath/stock-scorecard/internal/modules/scorecard"
	"github.com/aristath/stock-scorecard/internal/modules/technicals"
	"github.com/aristath/stock-scorecard/internal/scheduler"
	"github.com/aristath/stock-scorecard/internal/server"
	"github.com/aristath/stock-scorecard/internal/services"
	"github.com/aristath/stock-scorecard/pkg/logger"
)

func main() {
	// Load configuration first so the log level is honored from the start
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Stock Scorecard")

	// Cache database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	cacheStore := cache.New(db, log)

	// Upstream clients
	yahooClient := yahoo.NewClient(log)
	finnhubClient := finnhub.NewClient(cfg.FinnhubAPIKey, cfg.FinnhubRateLimit, log)
	edgarClient := edgar.NewClient(cfg.EdgarUserAgent, cfg.EdgarRateLimit, log)

	if !finnhubClient.Enabled() {
		log.Warn().Msg("FINNHUB_API_KEY not set, fundamental coverage will be degraded")
	}

	// Market calendar drives price cache TTLs
	markets := marketcal.New(log, cfg.CacheTTLCharts, time.Hour)

	// Analysis modules
	quarterlyPipeline := earnings.NewPipeline(finnhubClient, edgarClient, cacheStore, log)
	earningsViews := earnings.NewViewBuilder(quarterlyPipeline, edgarClient, cacheStore, log)
	benchmarkSvc := benchmarks.NewService(finnhubClient, cacheStore, markets, log)
	fundamentalAnalyzer := fundamentals.NewAnalyzer(finnhubClient, yahooClient, quarterlyPipeline, benchmarkSvc, cacheStore, cfg.CacheTTLMetrics, log)
	technicalAnalyzer := technicals.NewAnalyzer(log)
	scorecardEngine := scorecard.NewEngine(log)

	aggregator := services.NewAggregator(
		yahooClient,
		finnhubClient,
		fundamentalAnalyzer,
		technicalAnalyzer,
		earningsViews,
		scorecardEngine,
		cacheStore,
		markets,
		log,
	)

	// Background jobs
	sched := scheduler.New(log)

	systemHandlers := server.NewSystemHandlers(log, cacheStore, db, sched)

	maintenanceJob := scheduler.NewCacheMaintenanceJob(log, cacheStore, db, 7*24*time.Hour)
	if err := sched.AddJob("0 30 3 * * *", maintenanceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache maintenance job")
	}
	systemHandlers.RegisterJob(maintenanceJob)

	if len(cfg.Watchlist) > 0 {
		refreshJob := scheduler.NewRefreshJob(scheduler.RefreshConfig{
			Log:        log,
			Watchlist:  cfg.Watchlist,
			Markets:    markets,
			Scorecards: aggregator,
		})
		if err := sched.AddJob("0 */30 * * * *", refreshJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register refresh job")
		}
		systemHandlers.RegisterJob(refreshJob)
		log.Info().Strs("watchlist", cfg.Watchlist).Msg("Watchlist refresh enabled")
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		Stocks:  aggregator,
		Markets: markets,
		System:  systemHandlers,
		DevMode: cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
