package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/stock-scorecard/internal/domain"
	"github.com/aristath/stock-scorecard/internal/marketcal"
	"github.com/aristath/stock-scorecard/internal/modules/earnings"
)

// StockService provides the per-ticker data operations exposed over HTTP.
type StockService interface {
	GetCompanyOverview(ctx context.Context, ticker string) (*domain.CompanyOverview, error)
	GetChart(ctx context.Context, ticker string, timeframe domain.Timeframe) (*domain.ChartData, error)
	GetFundamentalAnalysis(ctx context.Context, ticker string) (*domain.FundamentalAnalysis, error)
	GetTechnicalAnalysis(ctx context.Context, ticker string, timeframe domain.Timeframe) (*domain.TechnicalAnalysis, error)
	GenerateScorecard(ctx context.Context, ticker string) (*domain.Scorecard, error)
	GetEarningsView(ctx context.Context, ticker string) (*earnings.View, error)
	GetNews(ctx context.Context, ticker string, days, maxItems int) ([]domain.NewsItem, error)
	GetEarningsHistory(ctx context.Context, ticker string, limit int) ([]domain.EarningsPeriod, error)
	GetRecommendations(ctx context.Context, ticker string) ([]domain.Recommendation, error)
}

// Config holds server configuration
type Config struct {
	Port    int
	Log     zerolog.Logger
	Stocks  StockService
	Markets *marketcal.Service
	System  *SystemHandlers
	DevMode bool
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	stocks  StockService
	markets *marketcal.Service
	system  *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     cfg.Log.With().Str("component", "server").Logger(),
		stocks:  cfg.Stocks,
		markets: cfg.Markets,
		system:  cfg.System,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout. Cold scorecard requests fan out to several upstream APIs,
	// so the budget is generous.
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/stocks/{ticker}", func(r chi.Router) {
			r.Get("/overview", s.handleOverview)
			r.Get("/chart/{timeframe}", s.handleChart)
			r.Get("/fundamental", s.handleFundamental)
			r.Get("/technical/{timeframe}", s.handleTechnical)
			r.Get("/scorecard", s.handleScorecard)
			r.Get("/earnings", s.handleEarnings)
			r.Get("/earnings-history", s.handleEarningsHistory)
			r.Get("/news", s.handleNews)
			r.Get("/recommendations", s.handleRecommendations)
		})

		// Markets
		r.Get("/markets/status", s.handleMarketsStatus)

		// System
		if s.system != nil {
			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.system.HandleStatus)
				r.Get("/cache", s.system.HandleCacheStats)
				r.Post("/cache/prune", s.system.HandleCachePrune)
				r.Get("/jobs", s.system.HandleJobs)
				r.Post("/jobs/{name}/run", s.system.HandleRunJob)
			})
		}
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler returns the root handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
