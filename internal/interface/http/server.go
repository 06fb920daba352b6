// Package http implements the JSON REST API of Timory Hub.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/timory/timory-hub/internal/application/command"
	"github.com/timory/timory-hub/internal/application/query"
	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/interface/http/handlers"
	"github.com/timory/timory-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RequestTimeout bounds every /api/v1 request. The websocket route is exempt.
	RequestTimeout time.Duration

	MaxHeaderBytes int
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 10 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Websocket registers a live connection for a member.
type Websocket interface {
	Serve(w http.ResponseWriter, r *http.Request, memberID string) error
}

// HTTPMetrics observes finished requests.
type HTTPMetrics interface {
	ObserveHTTP(route string, status int, d time.Duration)
}

// Dependencies contains everything the handlers call.
type Dependencies struct {
	// Commands (write side)
	Likes    *command.LikeTargetHandler
	Visits   *command.VisitTargetHandler
	Members  *command.MemberHandler
	Watches  *command.WatchHandler
	Articles *command.ArticleHandler
	Comments *command.CommentHandler

	// Queries (read side)
	MemberQueries  *query.MemberQueries
	WatchQueries   *query.WatchQueries
	ArticleQueries *query.ArticleQueries
	CommentQueries *query.CommentQueries

	// MemberLookup backs the admin check; nil denies every admin route.
	MemberLookup MemberLookup

	Health    handlers.HealthChecker
	Websocket Websocket
	Metrics   HTTPMetrics
	// Gatherer serves /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer

	Logger zerolog.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the HTTP API server.
type Server struct {
	config     Config
	deps       Dependencies
	router     chi.Router
	httpServer *http.Server
	logger     zerolog.Logger

	mu      sync.Mutex
	running bool
}

// NewServer creates the server and its routes.
func NewServer(config Config, deps Dependencies) *Server {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		config: config,
		deps:   deps,
		logger: logger.Component(deps.Logger, "http"),
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:           config.Addr,
		Handler:        s.router,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(s.recoverer)
	r.Use(viewerMiddleware)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleWebsocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.RequestTimeout))

		// ─────────────────────────────────────────────────────────────────
		// Members
		// ─────────────────────────────────────────────────────────────────
		r.Get("/members/dealers", s.handleListDealers)
		r.Get("/members/brands", s.handleListBrands)
		r.Get("/members/top-dealers", s.handleTopDealers)
		r.Get("/members/{id}", s.handleGetMember)
		r.With(requireViewer).Patch("/members/me", s.handleUpdateProfile)
		r.With(requireViewer).Post("/members/{id}/like", s.handleLike(engagement.GroupMember))

		// ─────────────────────────────────────────────────────────────────
		// Watches
		// ─────────────────────────────────────────────────────────────────
		r.Get("/watches", s.handleSearchWatches)
		r.Get("/watches/top", s.handleTopWatches)
		r.With(requireViewer).Get("/watches/favorites", s.handleFavoriteWatches)
		r.With(requireViewer).Get("/watches/visited", s.handleVisitedWatches)
		r.With(requireViewer).Post("/watches", s.handleCreateWatch)
		r.Get("/watches/{id}", s.handleGetWatch)
		r.With(requireViewer).Patch("/watches/{id}", s.handleUpdateWatch)
		r.With(requireViewer).Post("/watches/{id}/like", s.handleLike(engagement.GroupWatch))

		// ─────────────────────────────────────────────────────────────────
		// Articles
		// ─────────────────────────────────────────────────────────────────
		r.Get("/articles", s.handleSearchArticles)
		r.With(requireViewer).Get("/articles/mine", s.handleMyArticles)
		r.With(requireViewer).Post("/articles", s.handleCreateArticle)
		r.Get("/articles/{id}", s.handleGetArticle)
		r.With(requireViewer).Patch("/articles/{id}", s.handleUpdateArticle)
		r.With(requireViewer).Post("/articles/{id}/like", s.handleLike(engagement.GroupArticle))

		// ─────────────────────────────────────────────────────────────────
		// Comments & notifications
		// ─────────────────────────────────────────────────────────────────
		r.Get("/comments", s.handleListComments)
		r.With(requireViewer).Post("/comments", s.handleCreateComment)
		r.With(requireViewer).Patch("/comments/{id}", s.handleUpdateComment)
		r.With(requireViewer).Get("/notifications", s.handleListNotifications)

		// ─────────────────────────────────────────────────────────────────
		// Admin
		// ─────────────────────────────────────────────────────────────────
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/members", s.handleAdminListMembers)
			r.Patch("/members/{id}", s.handleAdminUpdateMember)
			r.Delete("/watches/{id}", s.handleAdminPurgeWatch)
			r.Get("/articles", s.handleAdminListArticles)
			r.Patch("/articles/{id}", s.handleAdminUpdateArticle)
			r.Delete("/articles/{id}", s.handleAdminRemoveArticle)
			r.Delete("/comments/{id}", s.handleAdminRemoveComment)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})
	return r
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info().Str("addr", s.config.Addr).Msg("starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & WEBSOCKET
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	st := s.deps.Health.Check(r.Context())
	if !st.Healthy {
		writeJSON(w, http.StatusServiceUnavailable, st)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	viewer := viewerFrom(r.Context())
	if viewer.ID == "" {
		s.writeError(w, r, errNotAuthenticated)
		return
	}
	if s.deps.Websocket == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Websocket is not enabled")
		return
	}
	if err := s.deps.Websocket.Serve(w, r, viewer.ID); err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Debug().Err(err).Str("member_id", viewer.ID).Msg("websocket closed")
	}
}
