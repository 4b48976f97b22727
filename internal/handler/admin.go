package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/reassess/internal/handler/views"
	"github.com/pavelanni/reassess/internal/model"
)

func (h *Handler) handleAdminUsersPage(w http.ResponseWriter, r *http.Request) {
	h.renderUsers(w, r, http.StatusOK, "")
}

func (h *Handler) renderUsers(w http.ResponseWriter, r *http.Request, status int, msg string) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, status, views.AdminUsersPage(users, msg))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	displayName := strings.TrimSpace(r.FormValue("display_name"))
	password := r.FormValue("password")
	role := model.UserRole(r.FormValue("role"))

	if username == "" || password == "" || !model.ValidUserRole(role) {
		h.renderUsers(w, r, http.StatusBadRequest, "UserCreateInvalid")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if displayName == "" {
		displayName = username
	}

	_, err = h.store.CreateUser(model.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	})
	if err != nil {
		slog.Error("failed to create user", "username", username, "error", err)
		h.renderUsers(w, r, http.StatusConflict, "UserCreateFailed")
		return
	}
	slog.Info("created user", "username", username, "role", role)

	http.Redirect(w, r, h.path("/admin/users"), http.StatusSeeOther)
}

func userIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
}

func (h *Handler) handleSetUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}
	active, err := strconv.ParseBool(r.FormValue("active"))
	if err != nil {
		http.Error(w, "invalid active flag", http.StatusBadRequest)
		return
	}
	if me := model.UserFromContext(r.Context()); me.ID == id && !active {
		h.renderUsers(w, r, http.StatusBadRequest, "CannotDeactivateSelf")
		return
	}

	if err := h.store.SetUserActive(id, active); err != nil {
		slog.Error("failed to set user active", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.path("/admin/users"), http.StatusSeeOther)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}
	password := r.FormValue("password")
	if password == "" {
		h.renderUsers(w, r, http.StatusBadRequest, "PasswordRequired")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.store.SetUserPassword(id, string(hash)); err != nil {
		slog.Error("failed to set password", "id", id, "error", err)
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if me := model.UserFromContext(r.Context()); me.ID != id {
		if err := h.store.DeleteUserAuthSessions(id); err != nil {
			slog.Error("failed to end sessions after password reset", "id", id, "error", err)
		}
	}

	h.renderUsers(w, r, http.StatusOK, "PasswordUpdated")
}

func (h *Handler) handleAdminCallsPage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.AICallStats()
	if err != nil {
		slog.Error("failed to aggregate ai calls", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	calls, err := h.store.ListAICalls(100)
	if err != nil {
		slog.Error("failed to list ai calls", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, http.StatusOK, views.AdminCallsPage(views.CallsData{Stats: stats, Calls: calls}))
}

func (h *Handler) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	export, err := h.store.ExportRedesigns()
	if err != nil {
		slog.Error("failed to export redesigns", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="reassess-%s.json"`, time.Now().Format("2006-01-02")))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}
