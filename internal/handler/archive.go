package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/reassess/internal/handler/views"
	"github.com/pavelanni/reassess/internal/model"
	"github.com/pavelanni/reassess/internal/wizard"
)

// handleArchiveSave stores the approved sections of the current wizard run.
func (h *Handler) handleArchiveSave(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	st := h.session(r).Snapshot()

	var sections []model.TaskSection
	for _, sec := range st.Sections {
		if sec.Status == model.SectionApproved {
			sections = append(sections, sec.TaskSection)
		}
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if len(sections) == 0 || title == "" {
		h.setFlash(w, wizard.NoticeError, "NoticeNothingToArchive")
		http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
		return
	}

	id, err := h.store.SaveRedesign(model.Redesign{
		UserID:         user.ID,
		Title:          title,
		AssignmentText: st.AssignmentText,
		NumStudents:    st.NumStudents,
		Skills:         st.SelectedSkills,
		Strategies:     st.Strategies,
		Sections:       sections,
		PracticalTips:  st.PracticalTips,
		Rubric:         st.Rubric,
	})
	if err != nil {
		slog.Error("failed to archive redesign", "user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	slog.Info("archived redesign", "id", id, "user_id", user.ID)
	h.setFlash(w, wizard.NoticeInfo, "NoticeArchived")
	http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
}

func (h *Handler) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	owner := user.ID
	if user.Role == model.UserRoleAdmin {
		owner = 0
	}
	redesigns, err := h.store.ListRedesigns(owner)
	if err != nil {
		slog.Error("failed to list redesigns", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, http.StatusOK, views.ArchivePage(views.ArchiveData{Redesigns: redesigns}))
}

func redesignIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "redesignID"), 10, 64)
}

func (h *Handler) handleArchiveItem(w http.ResponseWriter, r *http.Request) {
	id, err := redesignIDParam(r)
	if err != nil {
		http.Error(w, "invalid redesign ID", http.StatusBadRequest)
		return
	}
	rd, err := h.store.GetRedesign(id)
	if err != nil {
		slog.Error("failed to get redesign", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	user := model.UserFromContext(r.Context())
	if rd == nil || (rd.UserID != user.ID && user.Role != model.UserRoleAdmin) {
		http.NotFound(w, r)
		return
	}
	render(w, r, http.StatusOK, views.RedesignPage(*rd))
}

func (h *Handler) handleArchiveDelete(w http.ResponseWriter, r *http.Request) {
	id, err := redesignIDParam(r)
	if err != nil {
		http.Error(w, "invalid redesign ID", http.StatusBadRequest)
		return
	}
	user := model.UserFromContext(r.Context())
	err = h.store.DeleteRedesign(id, user.ID)
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to delete redesign", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.path("/archive"), http.StatusSeeOther)
}
