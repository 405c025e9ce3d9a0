// Package api exposes the round lifecycle, offline verification and the RTP
// simulator over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/games"
	"github.com/MJE43/pf-casino-engine/internal/scan"
	"github.com/MJE43/pf-casino-engine/internal/session"
	"github.com/MJE43/pf-casino-engine/internal/store"
)

// Rounds is the lifecycle surface of *session.Manager.
type Rounds interface {
	StartRound(ctx context.Context, account string, variant games.Variant, params map[string]any) (*session.Round, error)
	PlaceWagers(ctx context.Context, id string, specs []bets.WagerSpec) (*session.Round, error)
	Reveal(ctx context.Context, id string) (*session.Revelation, error)
	Cancel(ctx context.Context, id string) (*session.Round, error)
	Refund(ctx context.Context, id string) (*session.Round, error)
	Get(ctx context.Context, id string) (*session.Round, error)
	List(ctx context.Context, account string) ([]*session.Round, error)
}

// RunStore persists simulation runs. *store.SQLite satisfies it.
type RunStore interface {
	SaveRun(ctx context.Context, res *scan.Result) (*store.Run, error)
	GetRun(ctx context.Context, id string) (*store.Run, error)
	GetHits(ctx context.Context, runID string, limit, offset int) ([]store.Hit, error)
}

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server handles HTTP requests
type Server struct {
	rounds         Rounds
	scanner        *scan.Scanner
	runs           RunStore
	checks         map[string]Pinger
	errorHandler   *ErrorHandler
	logger         *slog.Logger
	validate       *validator.Validate
	requestTimeout time.Duration
	startTime      time.Time
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// WithRunStore enables persisting simulations and the /simulations routes.
func WithRunStore(rs RunStore) Option { return func(s *Server) { s.runs = rs } }

// WithHealthCheck adds a named dependency to GET /health.
func WithHealthCheck(name string, p Pinger) Option {
	return func(s *Server) { s.checks[name] = p }
}

func WithRequestTimeout(d time.Duration) Option { return func(s *Server) { s.requestTimeout = d } }

// NewServer creates a new API server
func NewServer(rounds Rounds, scanner *scan.Scanner, opts ...Option) *Server {
	s := &Server{
		rounds:         rounds,
		scanner:        scanner,
		checks:         make(map[string]Pinger),
		logger:         slog.Default(),
		validate:       validator.New(),
		requestTimeout: 60 * time.Second,
		startTime:      time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scanner == nil {
		s.scanner = scan.NewScanner(scan.Config{EngineVersion: EngineVersion})
	}
	s.logger = s.logger.With("component", "api")
	s.errorHandler = NewErrorHandler(s.logger)
	return s
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/live", s.handleLiveness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/games", s.handleListGames)

		r.Route("/rounds", func(r chi.Router) {
			r.Post("/", s.handleStartRound)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRound)
				r.Post("/wagers", s.handlePlaceWagers)
				r.Post("/reveal", s.handleReveal)
				r.Post("/cancel", s.handleCancel)
				r.Post("/refund", s.handleRefund)
			})
		})
		r.Get("/accounts/{account}/rounds", s.handleListRounds)
		r.Get("/accounts/{account}/rounds/export.csv", s.handleExportRounds)

		r.Post("/verify", s.handleVerify)
		r.Post("/simulate", s.handleSimulate)
		r.Get("/simulations/{id}", s.handleGetSimulation)
	})

	return r
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		s.errorHandler.HandleValidationError(w, r, err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.errorHandler.HandleValidationError(w, r, err)
		return false
	}
	return true
}

// writeJSON writes a JSON response with proper headers
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing more can be reported.
		return
	}
}
