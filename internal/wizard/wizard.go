// Package wizard holds the per-instructor redesign flow: the four steps,
// the data each step produces, and the rules for editing it between
// model calls.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pavelanni/reassess/internal/extract"
	"github.com/pavelanni/reassess/internal/llm"
	"github.com/pavelanni/reassess/internal/model"
)

var (
	// ErrBusy is returned when a model-backed request is already outstanding.
	ErrBusy = errors.New("another request is in progress")
	// ErrValidation is returned when a local precondition fails.
	ErrValidation = errors.New("invalid wizard operation")
	// ErrStale is returned when a result arrives after the session was reset.
	ErrStale = errors.New("result discarded after reset")
)

// Mode distinguishes the landing page from the stepped flow.
type Mode string

const (
	ModeHome     Mode = "home"
	ModeRedesign Mode = "redesign"
)

// Step is a position in the four-step flow.
type Step int

const (
	StepInput Step = iota + 1
	StepSkills
	StepStrategies
	StepResult
)

// DefaultStudents is the class size a fresh session starts with.
const DefaultStudents = 30

// NoticeLevel is the severity of a user notification.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a pending one-shot notification. MessageID and Cause are
// translation IDs resolved by the view layer.
type Notice struct {
	Level     NoticeLevel
	MessageID string
	Cause     string
}

// Assistant is the model-backed half of the wizard; *llm.Client implements it.
type Assistant interface {
	AnalyzeSkills(ctx context.Context, in model.InputPayload) (*model.SkillAnalysis, error)
	GenerateStrategies(ctx context.Context, skills []model.Skill, numStudents int) ([]model.AssessmentMethod, error)
	Rephrase(ctx context.Context, text string, skills []model.Skill, strategies []model.AssessmentMethod, numStudents int) (*model.Rephrasing, error)
	GenerateRubric(ctx context.Context, sections []model.TaskSection) ([]model.RubricRow, error)
	AskFollowUp(ctx context.Context, text string, sections []model.TaskSection, strategies []model.AssessmentMethod, history []model.ChatMessage, question string) (string, error)
}

// State is everything one wizard run has produced so far.
type State struct {
	Mode           Mode
	Step           Step
	MaxReachedStep Step

	AssignmentText string
	Staged         *model.FilePayload
	NumStudents    int

	Analysis       *model.SkillAnalysis
	CustomSkills   []model.Skill
	SelectedSkills []model.Skill

	Strategies []model.AssessmentMethod

	Sections      []model.SectionState
	PracticalTips string
	Rubric        []model.RubricRow
	Chat          []model.ChatMessage

	Busy       bool
	RubricBusy bool
	Notice     *Notice
}

// Options configures a new Session.
type Options struct {
	Language    string // he or en; selects the fixed labels
	NumStudents int
	NewID       func() string
}

// Session is one instructor's wizard. All methods are safe for concurrent use;
// model calls run without holding the lock.
type Session struct {
	mu          sync.Mutex
	ai          Assistant
	lang        string
	newID       func() string
	epoch       uint64
	// sectionsGen changes whenever the section list is replaced.
	sectionsGen uint64
	st          State
}

// NewSession creates a session at the home screen.
func NewSession(ai Assistant, opts Options) *Session {
	if opts.NumStudents < 1 {
		opts.NumStudents = DefaultStudents
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return "group-" + uuid.NewString() }
	}
	return &Session{
		ai:    ai,
		lang:  opts.Language,
		newID: opts.NewID,
		st:    freshState(opts.NumStudents),
	}
}

func freshState(numStudents int) State {
	return State{
		Mode:           ModeHome,
		Step:           StepInput,
		MaxReachedStep: StepInput,
		NumStudents:    numStudents,
	}
}

// Language returns the label language of the session.
func (s *Session) Language() string { return s.lang }

// Snapshot returns a deep copy of the current state for rendering.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.clone()
}

// TakeNotice returns and clears the pending notification.
func (s *Session) TakeNotice() *Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.st.Notice
	s.st.Notice = nil
	return n
}

// Start enters the stepped flow at step 1.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Mode = ModeRedesign
	s.st.Step = StepInput
}

// GoBack moves one step back; from step 1 it returns to the home screen.
func (s *Session) GoBack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.Step == StepInput {
		s.st.Mode = ModeHome
		return
	}
	s.st.Step--
}

// GoToStep jumps to any step already reached. Other targets are ignored.
func (s *Session) GoToStep(n Step) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < StepInput || n > s.st.MaxReachedStep {
		return false
	}
	s.st.Mode = ModeRedesign
	s.st.Step = n
	return true
}

// Reset discards all derived state and returns home. The class size is kept.
// Calls still in flight will find the epoch changed and drop their results.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.st = freshState(s.st.NumStudents)
}

// SetAssignmentText replaces the pasted assignment text.
func (s *Session) SetAssignmentText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.AssignmentText = text
}

// SetNumStudents sets the class size; it must be at least 1.
func (s *Session) SetNumStudents(n int) error {
	if n < 1 {
		return validationf("number of students must be at least 1, got %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.NumStudents = n
	return nil
}

// AttachDocument applies an upload. Extracted text is appended to the
// assignment and clears any staged binary; a binary replaces the staged one.
func (s *Session) AttachDocument(doc extract.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.IsBinary() {
		f := *doc.File
		s.st.Staged = &f
		return
	}
	if s.st.AssignmentText != "" && doc.Text != "" {
		s.st.AssignmentText += "\n\n" + doc.Text
	} else if doc.Text != "" {
		s.st.AssignmentText = doc.Text
	}
	s.st.Staged = nil
}

// ClearDocument drops the staged binary, if any.
func (s *Session) ClearDocument() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Staged = nil
}

// input builds the analysis payload. Caller holds the lock.
func (s *Session) input() (model.InputPayload, bool) {
	if s.st.Staged != nil {
		return model.BinaryInput{Text: s.st.AssignmentText, Upload: *s.st.Staged}, true
	}
	if strings.TrimSpace(s.st.AssignmentText) == "" {
		return nil, false
	}
	return model.TextInput{Text: s.st.AssignmentText}, true
}

// begin marks the session busy and returns the epoch the call belongs to.
// Caller holds the lock.
func (s *Session) begin() (uint64, error) {
	if s.st.Busy {
		return 0, ErrBusy
	}
	s.st.Busy = true
	return s.epoch, nil
}

// end clears the busy flag unless the session was reset meanwhile.
// Caller holds the lock.
func (s *Session) end(epoch uint64) error {
	if epoch != s.epoch {
		return ErrStale
	}
	s.st.Busy = false
	return nil
}

// advance moves to step n and raises the watermark. Caller holds the lock.
func (s *Session) advance(n Step) {
	s.st.Mode = ModeRedesign
	s.st.Step = n
	if n > s.st.MaxReachedStep {
		s.st.MaxReachedStep = n
	}
}

// fail logs a model failure and queues a notice. Caller holds the lock.
func (s *Session) fail(messageID string, err error) {
	slog.Error("wizard request failed", "request", messageID, "error", err)
	s.st.Notice = &Notice{Level: NoticeError, MessageID: messageID, Cause: causeID(err)}
}

func causeID(err error) string {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return "CauseNotConfigured"
	case errors.Is(err, llm.ErrMalformedResponse):
		return "CauseMalformed"
	case errors.Is(err, llm.ErrUnsupportedPayload):
		return "CauseUnsupported"
	default:
		return "CauseTransport"
	}
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
