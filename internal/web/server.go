// Package web provides the HTTP server and handlers for the devmate web UI.
package web

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evcraddock/devmate/internal/auth"
	"github.com/evcraddock/devmate/internal/client"
	"github.com/evcraddock/devmate/internal/config"
	"github.com/evcraddock/devmate/internal/logging"
	"github.com/evcraddock/devmate/internal/markup"
	"github.com/evcraddock/devmate/internal/postview"
	"github.com/evcraddock/devmate/internal/profile"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

const sessionCleanupInterval = time.Hour

// Server is the web UI HTTP server.
type Server struct {
	cfg       config.Config
	api       postview.API
	sessions  *auth.SessionStore
	limiter   *auth.LoginLimiter
	renderer  *markup.Renderer
	templates *template.Template
	router    chi.Router
}

// NewServer creates a web server that stores sessions in db and talks to
// the backend named in cfg.
func NewServer(db *sql.DB, cfg config.Config) (*Server, error) {
	return newServer(db, cfg, client.New(cfg.BackendURL, cfg.BoardID, cfg.RequestTimeout))
}

func newServer(db *sql.DB, cfg config.Config, api postview.API) (*Server, error) {
	renderer := markup.New()

	funcMap := template.FuncMap{
		"markdown":   renderer.Render,
		"formatTime": tmplFormatTime,
		"techLabel":  profile.Label,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		api:       api,
		sessions:  auth.NewSessionStore(db, cfg.SecureCookies),
		limiter:   auth.NewLoginLimiter(),
		renderer:  renderer,
		templates: tmpl,
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	r := chi.NewRouter()
	r.Use(logging.RequestLogger, metricsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))

	r.With(s.limiter.Middleware).Get("/login", s.handleLoginPage)
	r.With(s.limiter.Middleware).Post("/login", s.handleLoginSubmit)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/logout", s.handleLogout)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/profile", http.StatusSeeOther)
		})

		r.Route("/posts/{postID}", func(r chi.Router) {
			r.Get("/", s.handlePost)
			r.Post("/edit", s.handlePostEdit)
			r.Post("/delete", s.handlePostDelete)
			r.Post("/comments", s.handleCommentCreate)
			r.Post("/comments/{commentID}/delete", s.handleCommentDelete)
		})

		r.Get("/profile", s.handleProfile)
		r.Post("/profile", s.handleProfileSave)
		r.Post("/profile/edit", s.handleProfileEdit)
		r.Post("/profile/cancel", s.handleProfileCancel)
		r.Post("/profile/tech", s.handleProfileTech)
	})

	s.router = r
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
// Expired sessions are removed periodically.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.cleanupSessions(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web UI", "addr", addr, "backend", s.cfg.BackendURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		if err := s.sessions.Cleanup(); err != nil {
			slog.Warn("cleaning up sessions", "err", err)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(s.sessions, next)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		slog.Warn("writing health response", "err", err)
	}
}

// render executes a page template and writes it with the given status.
func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("rendering template", "template", name, "err", err)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing response", "template", name, "err", err)
	}
}

// renderPartial executes a named template block (no layout) for HTMX swaps.
func (s *Server) renderPartial(w http.ResponseWriter, name string, data interface{}) {
	s.render(w, http.StatusOK, name, data)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends a browser or HTMX client to url.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// tmplFormatTime renders a timestamp as a local date-time, or "" when unset.
func tmplFormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
