// Package server provides the web front end and JSON API for jidai.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/jidai/internal/config"
	"github.com/hyperjump/jidai/internal/dates"
	"github.com/hyperjump/jidai/internal/models"
	"github.com/hyperjump/jidai/pkg/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// Interpreter turns dates and documents into interpreted events.
type Interpreter interface {
	InterpretNews(ctx context.Context, date models.DateQuery, query string) []models.InterpretedEvent
	InterpretDocuments(ctx context.Context, date models.DateQuery, refs []models.DocumentReference) []models.InterpretedEvent
}

// Archive resolves form-supplied file references and finds archived documents by date.
type Archive interface {
	Resolve(name string) (models.DocumentReference, error)
	Find(date models.DateQuery, query string) []models.DocumentReference
}

// Server is the HTTP server for the web front end and API.
type Server struct {
	interp    Interpreter
	archive   Archive
	config    *config.ServerConfig
	logger    *zap.Logger
	templates *template.Template
	server    *http.Server

	processDates *dates.Resolver
	newsDates    *dates.Resolver
	apiDates     *dates.Resolver
}

// NewServer creates a server. archive may be nil when no archive directories are configured.
func NewServer(interp Interpreter, archive Archive, cfg *config.ServerConfig, logger *zap.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s := &Server{
		interp:       interp,
		archive:      archive,
		config:       cfg,
		logger:       utils.OrNop(logger),
		templates:    tmpl,
		processDates: dates.ProcessForm(),
		newsDates:    dates.NewsForm(),
		apiDates:     dates.Default(),
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	r.Get("/", s.handleHome)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/process", s.handleProcess)
	r.Post("/news", s.handleNews)
	r.Post("/api/v1/interpret", s.handleInterpret)
	return r
}

// Start starts the HTTP server and blocks until it stops. After Stop it returns
// http.ErrServerClosed, also when Stop ran first.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
