// Package api is C11's Read API Surface: validates query parameters,
// defers to the store or the C9 metrics engine, and shapes JSON responses.
// It performs no business logic of its own (spec.md §4.11).
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/cache"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/interconnect"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/metrics"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/store"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/telemetry"
)

// Server is the read-only HTTP surface over the store, the computed-metrics
// engine, and the interconnect view.
type Server struct {
	router         *mux.Router
	httpServer     *http.Server
	store          *store.Store
	engine         *metrics.Engine
	interconnect   *interconnect.View
	cache          cache.Cache
	log            zerolog.Logger
	allowedOrigins []string
	telemetry      *telemetry.Registry
}

// Config holds the server's bind address and timeouts.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

func DefaultConfig(addr string) Config {
	return Config{
		Addr:         addr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// New builds a Server wired to its dependencies and registers every route.
func New(cfg Config, st *store.Store, engine *metrics.Engine, ic *interconnect.View, c cache.Cache, tel *telemetry.Registry, log zerolog.Logger) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		store:          st,
		engine:         engine,
		interconnect:   ic,
		cache:          c,
		log:            log,
		allowedOrigins: cfg.AllowedOrigins,
		telemetry:      tel,
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.timeoutMiddleware)
	s.router.Use(s.corsMiddleware)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.Handle("/metrics", s.metricsHandler()).Methods(http.MethodGet)

	for family := range store.Families {
		api.HandleFunc("/families/"+family, s.handleFamily(family)).Methods(http.MethodGet)
	}

	api.HandleFunc("/computed/rt_da_spread", s.handleRTDASpread).Methods(http.MethodGet)
	api.HandleFunc("/computed/zone_spread", s.handleZoneSpread).Methods(http.MethodGet)
	api.HandleFunc("/computed/load_forecast_error", s.handleLoadForecastError).Methods(http.MethodGet)
	api.HandleFunc("/computed/reserve_margin", s.handleReserveMargin).Methods(http.MethodGet)
	api.HandleFunc("/computed/price_volatility", s.handlePriceVolatility).Methods(http.MethodGet)
	api.HandleFunc("/computed/correlation", s.handleCorrelation).Methods(http.MethodGet)
	api.HandleFunc("/computed/trading_signals", s.handleTradingSignals).Methods(http.MethodGet)

	api.HandleFunc("/interconnect/{region}", s.handleInterconnectRegion).Methods(http.MethodGet)
	api.HandleFunc("/interconnect", s.handleInterconnectAll).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info().
			Str("request_id", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, o := range s.allowedOrigins {
		if o == origin || o == "*" {
			return true
		}
	}
	return false
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func requestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return "unknown"
}

// ListenAndServe starts the server; it blocks until Shutdown is called or
// the listener fails.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
