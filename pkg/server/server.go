// Package server exposes the crawlers over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"creatorjoy/pkg/config"
	"creatorjoy/pkg/logger"
	"creatorjoy/pkg/models"
	"creatorjoy/pkg/session"

	"github.com/go-chi/chi/v5"
)

// SessionManager is the part of session.Manager the API needs.
type SessionManager interface {
	Valid() bool
	Status(now time.Time) session.Status
	Refresh(ctx context.Context, trigger string) (*session.Credentials, error)
}

// ReelScraper runs one Instagram crawl.
type ReelScraper interface {
	Scrape(ctx context.Context, handle string, days, maxReels int) (*models.ReelResult, error)
}

// ChannelCrawler runs one YouTube channel crawl.
type ChannelCrawler interface {
	CrawlHandle(ctx context.Context, handle string, maxVideos, days int) (*models.ChannelResult, error)
}

// Server is the HTTP API.
type Server struct {
	cfg      config.ServerConfig
	crawl    config.CrawlConfig
	sessions SessionManager
	reels    ReelScraper
	channels ChannelCrawler
	logger   logger.Logger
	router   chi.Router
}

// New creates a server and mounts its routes.
func New(cfg *config.Config, sessions SessionManager, reels ReelScraper, channels ChannelCrawler, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	s := &Server{
		cfg:      cfg.Server,
		crawl:    cfg.Crawl,
		sessions: sessions,
		reels:    reels,
		channels: channels,
		logger:   log.WithField("component", "http"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(cors)
	r.Use(maxBody(s.cfg.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{"error": "Method Not Allowed"})
	})

	r.Get("/health", s.handleHealth)

	r.Route("/instagram", func(r chi.Router) {
		r.Get("/health", s.handleInstagramHealth)
		r.Get("/session", s.handleSessionStatus)
		r.Post("/refresh-session", s.handleRefreshSession)
		r.Post("/scrape", s.handleInstagramScrape)
	})

	r.Route("/youtube", func(r chi.Router) {
		r.Get("/health", s.handleYouTubeHealth)
		r.Post("/scrape", s.handleYouTubeScrape)
	})

	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.LogComponentStart(s.logger, "http", map[string]interface{}{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.LogComponentStop(s.logger, "http", "context done")
	return nil
}
