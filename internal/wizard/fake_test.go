package wizard

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pavelanni/reassess/internal/model"
)

// fakeAssistant returns canned results. A method listed in blocks signals
// started and then waits until its channel is closed.
type fakeAssistant struct {
	analysis    *model.SkillAnalysis
	analyzeErr  error
	groups      []model.AssessmentMethod
	groupsErr   error
	rephrasing  *model.Rephrasing
	rephraseErr error
	rubric      []model.RubricRow
	rubricErr   error
	answer      string
	answerErr   error

	blocks  map[string]chan struct{}
	started chan string

	mu             sync.Mutex
	calls          map[string]int
	lastInput      model.InputPayload
	lastHistory    []model.ChatMessage
	lastQuestion   string
	rubricSections []model.TaskSection
}

func (f *fakeAssistant) record(name string) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
	f.mu.Unlock()
	if ch, ok := f.blocks[name]; ok {
		f.started <- name
		<-ch
	}
}

func (f *fakeAssistant) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAssistant) AnalyzeSkills(_ context.Context, in model.InputPayload) (*model.SkillAnalysis, error) {
	f.mu.Lock()
	f.lastInput = in
	f.mu.Unlock()
	f.record("analyze")
	return f.analysis, f.analyzeErr
}

func (f *fakeAssistant) GenerateStrategies(context.Context, []model.Skill, int) ([]model.AssessmentMethod, error) {
	f.record("strategies")
	return cloneGroups(f.groups), f.groupsErr
}

func (f *fakeAssistant) Rephrase(context.Context, string, []model.Skill, []model.AssessmentMethod, int) (*model.Rephrasing, error) {
	f.record("rephrase")
	return f.rephrasing, f.rephraseErr
}

func (f *fakeAssistant) GenerateRubric(_ context.Context, sections []model.TaskSection) ([]model.RubricRow, error) {
	f.mu.Lock()
	f.rubricSections = sections
	f.mu.Unlock()
	f.record("rubric")
	return f.rubric, f.rubricErr
}

func (f *fakeAssistant) AskFollowUp(_ context.Context, _ string, _ []model.TaskSection, _ []model.AssessmentMethod, history []model.ChatMessage, question string) (string, error) {
	f.mu.Lock()
	f.lastHistory = history
	f.lastQuestion = question
	f.mu.Unlock()
	f.record("followup")
	return f.answer, f.answerErr
}

func sampleAnalysis() *model.SkillAnalysis {
	return &model.SkillAnalysis{
		CurrentSkills: []model.Skill{
			{Name: "Recall definitions", BloomLevel: model.BloomRemember},
			{Name: "Explain the model", BloomLevel: model.BloomUnderstand},
			{Name: "Apply the formula", BloomLevel: model.BloomApply},
		},
		SuggestedSkills: []model.Skill{
			{Name: "Critique a source", BloomLevel: model.BloomEvaluate},
		},
	}
}

func sampleGroups() []model.AssessmentMethod {
	return []model.AssessmentMethod{
		{ID: "group-1", Skills: []string{"Recall definitions", "Explain the model"}, Method: "Quiz", Type: model.CategoryFaceToFace, Explanation: "e1"},
		{ID: "group-2", Skills: []string{"Apply the formula"}, Method: "Project", Type: model.CategorySubmission, Explanation: "e2"},
	}
}

func sampleRephrasing() *model.Rephrasing {
	return &model.Rephrasing{
		Sections: []model.TaskSection{
			{Title: "Task", Content: "Write **two** pages", Audience: model.AudienceStudent},
			{Title: "Grading notes", Content: "Hold a viva", Audience: model.AudienceLecturer},
			{Title: "Submission", Content: "Upload a PDF", Audience: model.AudienceStudent},
		},
		PracticalTips: "Keep it short",
	}
}

func counterIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
}

func newTestSession(t *testing.T, ai *fakeAssistant) *Session {
	t.Helper()
	return NewSession(ai, Options{Language: "en", NewID: counterIDs()})
}

// atStep drives a fresh session through the successful calls up to step.
func atStep(t *testing.T, ai *fakeAssistant, step Step) *Session {
	t.Helper()
	s := newTestSession(t, ai)
	s.Start()
	s.SetAssignmentText("Write an essay about climate models.")
	ctx := context.Background()
	if step >= StepSkills {
		if err := s.AnalyzeSkills(ctx); err != nil {
			t.Fatalf("AnalyzeSkills: %v", err)
		}
	}
	if step >= StepStrategies {
		if err := s.RequestStrategies(ctx); err != nil {
			t.Fatalf("RequestStrategies: %v", err)
		}
	}
	if step >= StepResult {
		if err := s.RequestRephrase(ctx); err != nil {
			t.Fatalf("RequestRephrase: %v", err)
		}
	}
	return s
}

func fullAssistant() *fakeAssistant {
	return &fakeAssistant{
		analysis:   sampleAnalysis(),
		groups:     sampleGroups(),
		rephrasing: sampleRephrasing(),
		rubric: []model.RubricRow{
			{Criterion: "Argument", Excellent: "e", Good: "g", NeedsImprovement: "n"},
		},
		answer: "Use a short viva.",
	}
}
