package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/reassess/internal/handler/views"
	appI18n "github.com/pavelanni/reassess/internal/i18n"
	"github.com/pavelanni/reassess/internal/model"
)

const (
	sessionCookieName = "session"
	csrfCookieName    = "csrf_token"
	csrfFormField     = "csrf_token"
)

var errBadCredentials = errors.New("bad credentials")

// setCookie writes a cookie scoped to the deployment's base path. A negative
// maxAge deletes it.
func (h *Handler) setCookie(w http.ResponseWriter, name, value string, maxAge int, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.cookiePath(),
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func newCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// checkCSRF compares the form token with the cookie and returns a short
// reason when they do not match.
func checkCSRF(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return "cookie missing"
	}
	form := r.FormValue(csrfFormField)
	if form == "" {
		return "form token missing"
	}
	if subtle.ConstantTimeCompare([]byte(form), []byte(cookie.Value)) != 1 {
		return "mismatch"
	}
	return ""
}

// csrfMiddleware implements the double-submit cookie pattern. Every response
// carries a fresh token; unsafe methods must echo the previous one.
func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		safe := r.Method == http.MethodGet || r.Method == http.MethodHead
		if !safe {
			if reason := checkCSRF(r); reason != "" {
				slog.Warn("CSRF check failed", "path", r.URL.Path, "reason", reason)
				http.Error(w, "invalid csrf token", http.StatusForbidden)
				return
			}
		}

		token, err := newCSRFToken()
		if err != nil {
			slog.Error("failed to generate CSRF token", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		// The form reads the token from the page, so the cookie stays visible to it.
		h.setCookie(w, csrfCookieName, token, 0, false)
		next.ServeHTTP(w, r.WithContext(model.ContextWithCSRFToken(r.Context(), token)))
	})
}

// requireAuth resolves the session cookie to an active user. A login session
// that no longer exists also takes its wizard with it.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			h.redirectToLogin(w, r)
			return
		}

		authSess, err := h.store.GetAuthSession(cookie.Value)
		switch {
		case err != nil:
			slog.Error("failed to get auth session", "error", err)
			h.redirectToLogin(w, r)
			return
		case authSess == nil:
			h.sessions.Drop(cookie.Value)
			h.redirectToLogin(w, r)
			return
		}

		user, err := h.store.GetUserByID(authSess.UserID)
		if err != nil || user == nil || !user.Active {
			h.sessions.Drop(authSess.ID)
			h.redirectToLogin(w, r)
			return
		}

		ctx := model.ContextWithAuthSession(model.ContextWithUser(r.Context(), user), authSess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.path("/login"), http.StatusSeeOther)
}

// authenticate returns the active user matching the credentials.
func (h *Handler) authenticate(username, password string) (*model.User, error) {
	user, err := h.store.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, errBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errBadCredentials
	}
	return user, nil
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, views.LoginPage(""))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	user, err := h.authenticate(r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		if !errors.Is(err, errBadCredentials) {
			slog.Error("failed to look up user", "error", err)
		}
		render(w, r, http.StatusUnauthorized, views.LoginPage(appI18n.T(r.Context(), "LoginError")))
		return
	}

	token, err := h.store.CreateAuthSession(user.ID)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.setCookie(w, sessionCookieName, token, 0, true)
	slog.Info("user logged in", "username", user.Username)
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := model.AuthSessionFromContext(r.Context()); token != "" {
		if err := h.store.DeleteAuthSession(token); err != nil {
			slog.Error("failed to delete auth session", "error", err)
		}
		h.sessions.Drop(token)
	}
	h.setCookie(w, sessionCookieName, "", -1, true)
	http.Redirect(w, r, h.path("/login"), http.StatusSeeOther)
}

// handleLanguage switches the interface language. The wizard's output
// language is fixed by the server.
func (h *Handler) handleLanguage(w http.ResponseWriter, r *http.Request) {
	if lang := r.FormValue("lang"); appI18n.Supported(lang) {
		appI18n.SetLanguageCookie(w, lang, h.cookiePath(), h.config.SecureCookies)
	}
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}
