package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/reassess/internal/extract"
	"github.com/pavelanni/reassess/internal/handler/views"
	"github.com/pavelanni/reassess/internal/model"
	"github.com/pavelanni/reassess/internal/wizard"
)

const flashCookieName = "flash"

func (h *Handler) wizardRoutes(r chi.Router) {
	r.Get("/", h.handleWizardPage)
	r.Post("/start", h.handleStart)
	r.Post("/back", h.handleBack)
	r.Post("/step", h.handleGoToStep)
	r.Post("/reset", h.handleReset)

	r.Post("/input", h.handleInput)
	r.Post("/document/clear", h.handleClearDocument)

	r.Post("/skills/toggle", h.handleToggleSkill)
	r.Post("/skills/custom", h.handleCustomSkill)
	r.Post("/strategies", h.handleRequestStrategies)

	r.Post("/groups/selection", h.handleStrategySelection)
	r.Post("/groups/move", h.handleMoveSkill)
	r.Post("/groups/new", h.handleNewGroup)
	r.Post("/rephrase", h.handleRephrase)

	r.Post("/sections/status", h.handleSectionStatus)
	r.Post("/sections/edit", h.handleSectionEdit)
	r.Post("/sections/content", h.handleSectionContent)
	r.Post("/rubric", h.handleRubric)
	r.Post("/rubric/cell", h.handleRubricCell)
	r.Post("/followup", h.handleFollowUp)

	r.Get("/export/sections", h.handleExportSections)
	r.Get("/export/rubric", h.handleExportRubric)
	r.Post("/archive", h.handleArchiveSave)
}

// session returns the wizard bound to the caller's login session.
func (h *Handler) session(r *http.Request) *wizard.Session {
	return h.sessions.Get(model.AuthSessionFromContext(r.Context()))
}

func (h *Handler) setFlash(w http.ResponseWriter, level wizard.NoticeLevel, msgID string) {
	h.setCookie(w, flashCookieName, string(level)+":"+msgID, 60, true)
}

func (h *Handler) takeFlash(w http.ResponseWriter, r *http.Request) *wizard.Notice {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	h.setCookie(w, flashCookieName, "", -1, true)
	level, id, ok := strings.Cut(c.Value, ":")
	if !ok || id == "" {
		return nil
	}
	return &wizard.Notice{Level: wizard.NoticeLevel(level), MessageID: id}
}

// finish turns the outcome of a wizard operation into a redirect back to
// the wizard. Model failures have already queued a notice on the session;
// invalid operations are reported with invalidMsg.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, err error, invalidMsg string) {
	switch {
	case err == nil, errors.Is(err, wizard.ErrStale):
	case errors.Is(err, wizard.ErrBusy):
		h.setFlash(w, wizard.NoticeInfo, "NoticeBusy")
	case errors.Is(err, wizard.ErrValidation):
		slog.Warn("rejected wizard operation", "path", r.URL.Path, "error", err)
		h.setFlash(w, wizard.NoticeError, invalidMsg)
	}
	http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
}

func formIndex(r *http.Request, name string) int {
	i, err := strconv.Atoi(r.FormValue(name))
	if err != nil {
		return -1
	}
	return i
}

func (h *Handler) handleWizardPage(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	st := sess.Snapshot()
	if st.Mode == wizard.ModeHome {
		http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, views.WizardPage(views.WizardData{
		State:  st,
		Lang:   sess.Language(),
		Notice: sess.TakeNotice(),
		Flash:  h.takeFlash(w, r),
	}))
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.session(r).Start()
	http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
}

func (h *Handler) handleBack(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	sess.GoBack()
	if sess.Snapshot().Mode == wizard.ModeHome {
		http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
}

func (h *Handler) handleGoToStep(w http.ResponseWriter, r *http.Request) {
	h.session(r).GoToStep(wizard.Step(formIndex(r, "step")))
	http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.session(r).Reset()
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

// handleInput saves step 1: text, class size and an optional upload. With
// action=analyze it then runs the skill analysis.
func (h *Handler) handleInput(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	sess.SetAssignmentText(r.FormValue("assignment_text"))

	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue("num_students")))
	if err == nil {
		err = sess.SetNumStudents(n)
	}
	if err != nil {
		h.setFlash(w, wizard.NoticeError, "NoticeInvalidStudents")
		http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
		return
	}

	if msgID := h.attachUpload(r, sess); msgID != "" {
		h.setFlash(w, wizard.NoticeError, msgID)
		http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
		return
	}

	if r.FormValue("action") != "analyze" {
		http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
		return
	}
	h.finish(w, r, sess.AnalyzeSkills(r.Context()), "NoticeInputRequired")
}

// attachUpload extracts the uploaded document, if any, into the session.
// It returns a message ID describing why the upload was rejected.
func (h *Handler) attachUpload(r *http.Request, sess *wizard.Session) string {
	file, header, err := r.FormFile("document")
	if errors.Is(err, http.ErrMissingFile) {
		return ""
	}
	if err != nil {
		slog.Warn("failed to read upload", "error", err)
		return "NoticeUploadFailed"
	}
	defer file.Close()

	if header.Size > h.config.MaxUploadBytes {
		return "NoticeTooLarge"
	}
	data, err := io.ReadAll(io.LimitReader(file, h.config.MaxUploadBytes+1))
	if err != nil {
		slog.Warn("failed to read upload", "file", header.Filename, "error", err)
		return "NoticeUploadFailed"
	}

	doc, err := extract.Extract(header.Filename, data)
	switch {
	case errors.Is(err, extract.ErrTooLarge):
		return "NoticeTooLarge"
	case errors.Is(err, extract.ErrUnsupported):
		return "NoticeUnsupportedFile"
	case err != nil:
		slog.Warn("failed to extract upload", "file", header.Filename, "error", err)
		return "NoticeUploadFailed"
	}
	sess.AttachDocument(doc)
	slog.Info("attached document", "file", header.Filename, "binary", doc.IsBinary())
	return ""
}

func (h *Handler) handleClearDocument(w http.ResponseWriter, r *http.Request) {
	h.session(r).ClearDocument()
	http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
}

func (h *Handler) handleToggleSkill(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	sk, ok := sess.FindSkill(r.FormValue("name"))
	if !ok {
		h.setFlash(w, wizard.NoticeError, "NoticeUnknownSkill")
		http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
		return
	}
	sess.ToggleSkill(sk)
	http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
}

func (h *Handler) handleCustomSkill(w http.ResponseWriter, r *http.Request) {
	level, ok := model.ParseBloomLevel(r.FormValue("level"))
	if !ok {
		level = model.BloomApply
	}
	h.session(r).AddCustomSkill(model.Skill{Name: r.FormValue("name"), BloomLevel: level})
	http.Redirect(w, r, h.path("/wizard"), http.StatusSeeOther)
}

func (h *Handler) handleRequestStrategies(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.session(r).RequestStrategies(r.Context()), "NoticeSkillsRequired")
}

func (h *Handler) handleStrategySelection(w http.ResponseWriter, r *http.Request) {
	err := h.session(r).UpdateStrategySelection(
		formIndex(r, "index"),
		model.Category(r.FormValue("category")),
		r.FormValue("method"),
	)
	h.finish(w, r, err, "NoticeInvalidRequest")
}

func (h *Handler) handleMoveSkill(w http.ResponseWriter, r *http.Request) {
	err := h.session(r).MoveSkillToGroup(r.FormValue("skill"), r.FormValue("target"))
	h.finish(w, r, err, "NoticeInvalidRequest")
}

func (h *Handler) handleNewGroup(w http.ResponseWriter, r *http.Request) {
	var req model.NewGroupRequest
	switch r.FormValue("kind") {
	case "skill":
		req = model.FromSkill{Name: r.FormValue("skill")}
	case "defense":
		req = model.DefenseSlot{}
	default:
		req = model.BlankGroup{}
	}
	_, err := h.session(r).AddNewGroup(req)
	h.finish(w, r, err, "NoticeInvalidRequest")
}

func (h *Handler) handleRephrase(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.session(r).RequestRephrase(r.Context()), "NoticeMethodRequired")
}

func (h *Handler) handleSectionStatus(w http.ResponseWriter, r *http.Request) {
	err := h.session(r).UpdateSectionStatus(formIndex(r, "index"), model.SectionStatus(r.FormValue("status")))
	h.finish(w, r, err, "NoticeInvalidRequest")
}

func (h *Handler) handleSectionEdit(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.session(r).ToggleSectionEdit(formIndex(r, "index")), "NoticeInvalidRequest")
}

// handleSectionContent saves an edited section and leaves edit mode.
func (h *Handler) handleSectionContent(w http.ResponseWriter, r *http.Request) {
	err := h.session(r).SaveSectionContent(formIndex(r, "index"), r.FormValue("content"))
	h.finish(w, r, err, "NoticeInvalidRequest")
}

func (h *Handler) handleRubric(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.session(r).RequestRubric(r.Context()), "NoticeNoStudentSections")
}

func (h *Handler) handleRubricCell(w http.ResponseWriter, r *http.Request) {
	err := h.session(r).UpdateRubricCell(
		formIndex(r, "row"),
		model.RubricField(r.FormValue("field")),
		r.FormValue("value"),
	)
	h.finish(w, r, err, "NoticeInvalidRequest")
}

func (h *Handler) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.session(r).SubmitFollowUp(r.Context(), r.FormValue("question")), "NoticeInvalidRequest")
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

func (h *Handler) handleExportSections(w http.ResponseWriter, r *http.Request) {
	writeText(w, h.session(r).ApprovedSectionsText())
}

func (h *Handler) handleExportRubric(w http.ResponseWriter, r *http.Request) {
	writeText(w, h.session(r).RubricTable())
}
