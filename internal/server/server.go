// Package server provides the HTTP API of the report service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/clientdata"
	"github.com/Eroleice/Quant-Cat/internal/database"
	"github.com/Eroleice/Quant-Cat/internal/events"
	"github.com/Eroleice/Quant-Cat/internal/pipeline"
)

// ReportRunner is the part of pipeline.Runner exposed over HTTP.
type ReportRunner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
	Last() *pipeline.Result
	Running() bool
}

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	Port    int
	DevMode bool
	Version string
	CacheDB   *database.DB           // optional
	CacheRepo *clientdata.Repository // optional
	Runner  ReportRunner
	Bus     *events.Bus
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	port    int
	system  *SystemHandlers
	reports *ReportHandlers
	stream  *EventsStreamHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     cfg.Log.With().Str("component", "server").Logger(),
		port:    cfg.Port,
		system:  NewSystemHandlers(cfg.Version, cfg.CacheDB, cfg.CacheRepo, cfg.Runner, cfg.Log),
		reports: NewReportHandlers(cfg.Runner, cfg.DevMode, cfg.Log),
		stream:  NewEventsStreamHandler(cfg.Bus, cfg.Log),
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.DevMode)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes(devMode bool) {
	s.router.Get("/health", s.handleHealth)

	// The event stream is long-lived and stays outside the request timeout.
	s.router.Get("/api/events/ws", s.stream.ServeHTTP)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		if !devMode {
			r.Use(middleware.Compress(5))
		}

		r.Route("/api/system", func(r chi.Router) {
			r.Get("/status", s.system.HandleSystemStatus)
			r.Get("/database", s.system.HandleDatabaseStats)
		})

		r.Route("/api/reports", func(r chi.Router) {
			r.Post("/run", s.reports.HandleRun)
			r.Get("/latest", s.reports.HandleLatest)
			r.Get("/latest/html", s.reports.HandleLatestHTML)
			r.Get("/latest/files/{name}", s.reports.HandleLatestFile)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

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

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
