// Package web provides the HTTP server: the curation pages and API, event
// and check-in endpoints, static assets and the metrics endpoint.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/rollcall/internal/config"
	"github.com/JonMunkholm/rollcall/internal/core"
	"github.com/JonMunkholm/rollcall/internal/metrics"
	"github.com/JonMunkholm/rollcall/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// contentSecurityPolicy allows only same-origin scripts, styles and images,
// plus data: images.
const contentSecurityPolicy = "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; font-src 'self'; form-action 'self'; frame-ancestors 'none'"

// Server is the HTTP server.
type Server struct {
	service *core.Service
	cfg     *config.Config
	metrics *metrics.Metrics
	router  *chi.Mux
	server  *http.Server
}

// NewServer wires routes and middleware. m may be nil.
func NewServer(service *core.Service, cfg *config.Config, m *metrics.Metrics) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		metrics: m,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimw.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}

	if s.cfg.Security.EnableCSP {
		s.router.Use(securityHeaders)
	}
	if s.cfg.Rate.Enabled {
		s.router.Use(middleware.NewRateLimiter(s.cfg.Rate, s.metrics).Middleware)
	}
}

func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.Handle("/metrics", s.metrics.Handler())
	s.router.Get("/healthz", s.handleHealth)

	session := middleware.Session(s.service.Sessions(), s.cfg.Session.CookieName)
	admin := middleware.AdminOnly(s.cfg.Security)

	// Pages
	s.router.Get("/", s.handleDashboard)
	s.router.With(session).Get("/curate/{entity}", s.handleCuratePage)
	s.router.Get("/events/new", s.handleNewEventPage)
	s.router.Get("/events/{id}", s.handleEventPage)
	s.router.Get("/users/{id}", s.handleMemberPage)
	s.router.Get("/checkin/{id}", s.handleCheckinPage)
	s.router.Post("/checkin/{id}", s.handleCheckinSubmit)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/entities", s.handleListEntities)

		// Curation: every change re-curates the session's table
		r.Route("/curate/{entity}", func(r chi.Router) {
			r.Use(session)
			r.Get("/", s.handleCurateGet)
			r.Post("/search", s.handleSearch)
			r.Post("/category", s.handleCategory)
			r.Post("/range", s.handleRange)
			r.Post("/sort/{field}", s.handleSort)
			r.Post("/reset", s.handleReset)
			r.Get("/export", s.handleExport)
		})

		// Events and check-in
		r.With(admin).Post("/events", s.handleCreateEvent)
		r.Get("/events/{id}", s.handleGetEvent)
		r.Get("/events/{id}/qr", s.handleEventQR)
		r.Post("/events/{id}/checkin", s.handleEventCheckin)
		r.Get("/events/{id}/analytics/export", s.handleAnalyticsExport)
		r.Post("/attendance", s.handleAttendance)

		// Roster
		r.With(admin).Post("/users", s.handleCreateMember)
		r.Get("/users/{id}", s.handleGetMember)
	})
}

// handleHealth pings the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Store().Ping(r.Context()); err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders sets the browser hardening headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
