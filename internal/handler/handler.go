package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/reassess/internal/extract"
	"github.com/pavelanni/reassess/internal/handler/views"
	"github.com/pavelanni/reassess/internal/model"
	"github.com/pavelanni/reassess/internal/store"
	"github.com/pavelanni/reassess/internal/wizard"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	sessions *wizard.Manager
	config   model.WizardConfig
}

// New creates a new Handler.
func New(s *store.Store, m *wizard.Manager, cfg model.WizardConfig) (*Handler, error) {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = extract.MaxUploadBytes
	}
	cfg.BasePath = strings.TrimRight(cfg.BasePath, "/")
	return &Handler{store: s, sessions: m, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(limitBody(h.config.MaxUploadBytes + 1<<20))
		r.Use(h.csrfMiddleware)

		r.Get("/login", h.handleLoginPage)
		r.Post("/login", h.handleLogin)
		r.Post("/language", h.handleLanguage)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/logout", h.handleLogout)
			r.Get("/", h.handleHome)
			r.Route("/wizard", h.wizardRoutes)

			r.Get("/archive", h.handleArchiveList)
			r.Get("/archive/{redesignID}", h.handleArchiveItem)
			r.Post("/archive/{redesignID}/delete", h.handleArchiveDelete)

			r.Group(func(r chi.Router) {
				r.Use(requireRole(model.UserRoleAdmin))
				r.Get("/admin/users", h.handleAdminUsersPage)
				r.Post("/admin/users", h.handleCreateUser)
				r.Post("/admin/users/{userID}/active", h.handleSetUserActive)
				r.Post("/admin/users/{userID}/password", h.handleResetPassword)
				r.Get("/admin/calls", h.handleAdminCallsPage)
				r.Get("/admin/export", h.handleAdminExport)
			})
		})
	})
}

// BasePathMiddleware makes the configured URL prefix available to views.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(); err != nil {
		slog.Error("health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	data := views.HomeData{}
	if sess, ok := h.sessions.Peek(model.AuthSessionFromContext(r.Context())); ok {
		data.InProgress = sess.Snapshot().Mode == wizard.ModeRedesign
	}
	archived, err := h.store.ListRedesigns(user.ID)
	if err != nil {
		slog.Error("failed to list redesigns", "user_id", user.ID, "error", err)
	}
	data.Archived = len(archived)
	render(w, r, http.StatusOK, views.HomePage(data))
}
