package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/reassess/internal/llm/prompts"
	"github.com/pavelanni/reassess/internal/model"
)

type fakeGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
	files    []*model.FilePayload
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, file *model.FilePayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.files = append(f.files, file)
	return f.response, f.err
}

func (f *fakeGenerator) Model() string { return "fake-model" }

type recordingObserver struct {
	events []CallEvent
}

func (r *recordingObserver) OnCallComplete(e CallEvent) { r.events = append(r.events, e) }

func newTestClient(t *testing.T, gen Generator) (*Client, *recordingObserver) {
	t.Helper()
	obs := &recordingObserver{}
	c, err := New(gen, prompts.LanguageEnglish, WithObserver(obs))
	require.NoError(t, err)
	return c, obs
}

func TestAnalyzeSkillsWithFile(t *testing.T) {
	gen := &fakeGenerator{response: `{"currentSkills":[{"name":"Recall","bloomLevel":"Remember","reasoning":"r"}],"suggestedSkills":[]}`}
	c, obs := newTestClient(t, gen)

	in := model.BinaryInput{Upload: model.FilePayload{Name: "a.pdf", Data: []byte("%PDF"), MIMEType: "application/pdf"}}
	got, err := c.AnalyzeSkills(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, got.CurrentSkills, 1)
	assert.Equal(t, "Recall", got.CurrentSkills[0].Name)

	require.Len(t, gen.files, 1)
	require.NotNil(t, gen.files[0])
	assert.Equal(t, "application/pdf", gen.files[0].MIMEType)
	assert.Contains(t, gen.prompts[0], "[See attached document]")

	require.Len(t, obs.events, 1)
	assert.Equal(t, prompts.KindAnalyze, obs.events[0].Kind)
	assert.Equal(t, "fake-model", obs.events[0].Model)
	assert.True(t, obs.events[0].Success())
}

func TestAnalyzeSkillsMalformed(t *testing.T) {
	gen := &fakeGenerator{response: "I cannot help with that."}
	c, obs := newTestClient(t, gen)

	got, err := c.AnalyzeSkills(context.Background(), model.TextInput{Text: "Write an essay"})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrMalformedResponse)

	var me *MalformedError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "I cannot help with that.", me.Raw)

	require.Len(t, obs.events, 1)
	assert.Equal(t, "malformed", obs.events[0].ErrorKind())
}

func TestGeneratorErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
		kind string
	}{
		{"plain error becomes transport", errors.New("connection reset"), ErrTransport, "transport"},
		{"not configured kept", ErrNotConfigured, ErrNotConfigured, "not_configured"},
		{"unsupported kept", ErrUnsupportedPayload, ErrUnsupportedPayload, "unsupported_payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, obs := newTestClient(t, &fakeGenerator{err: tt.err})
			_, err := c.GenerateRubric(context.Background(), []model.TaskSection{{Title: "t", Audience: model.AudienceStudent}})
			assert.ErrorIs(t, err, tt.want)
			require.Len(t, obs.events, 1)
			assert.Equal(t, tt.kind, obs.events[0].ErrorKind())
		})
	}
}

func TestGenerateStrategies(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n" + `[
  {"id":"group-1","skills":["A","B"],"method":"Oral exam","type":"FaceToFace","explanation":"e"},
  {"id":"group-2","skills":["C"],"method":"Project","type":"Submission","explanation":"e"}
]` + "\n```"}
	c, _ := newTestClient(t, gen)

	skills := []model.Skill{
		{Name: "A", BloomLevel: model.BloomApply},
		{Name: "B", BloomLevel: model.BloomAnalyze},
		{Name: "C", BloomLevel: model.BloomCreate},
	}
	got, err := c.GenerateStrategies(context.Background(), skills, 120)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"A", "B"}, got[0].Skills)
	assert.Equal(t, model.CategorySubmission, got[1].Type)
	assert.Contains(t, gen.prompts[0], "Number of students: 120")
	assert.Contains(t, gen.prompts[0], "- C (Create)")
}

func TestRephrase(t *testing.T) {
	gen := &fakeGenerator{response: `{"sections":[{"title":"Task","content":"Do it","audience":"student"},{"title":"Notes","content":"Grade it","audience":"lecturer"}],"practicalTips":"Tips"}`}
	c, _ := newTestClient(t, gen)

	strategies := []model.AssessmentMethod{{ID: "g", Skills: []string{"A"}, Method: "Quiz", Type: model.CategoryFaceToFace, UserSelectedMethod: "Oral defense", UserSelectedCategory: model.CategoryFaceToFace}}
	got, err := c.Rephrase(context.Background(), "Original text", nil, strategies, 30)
	require.NoError(t, err)
	assert.Len(t, got.Sections, 2)
	assert.Equal(t, "Tips", got.PracticalTips)
	assert.Contains(t, gen.prompts[0], "Method: Oral defense (FaceToFace)")
	assert.Nil(t, gen.files[0])
}

func TestGenerateRubricUsesStudentSections(t *testing.T) {
	gen := &fakeGenerator{response: `[{"criterion":"Clarity","excellent":"e","good":"g","needsImprovement":"n"}]`}
	c, _ := newTestClient(t, gen)

	sections := []model.TaskSection{
		{Title: "For students", Content: "student body", Audience: model.AudienceStudent},
		{Title: "For lecturers", Content: "lecturer body", Audience: model.AudienceLecturer},
	}
	rows, err := c.GenerateRubric(context.Background(), sections)
	require.NoError(t, err)
	assert.Equal(t, "Clarity", rows[0].Criterion)
	assert.Contains(t, gen.prompts[0], "student body")
	assert.NotContains(t, gen.prompts[0], "lecturer body")
}

func TestAskFollowUpReturnsRawText(t *testing.T) {
	gen := &fakeGenerator{response: "Consider a short viva."}
	c, obs := newTestClient(t, gen)

	history := []model.ChatMessage{
		{Role: model.ChatUser, Text: "first question"},
		{Role: model.ChatModel, Text: "first answer"},
	}
	got, err := c.AskFollowUp(context.Background(), "text", nil, nil, history, "  how to scale?  ")
	require.NoError(t, err)
	assert.Equal(t, "Consider a short viva.", got)
	assert.Contains(t, gen.prompts[0], "User: first question")
	assert.Contains(t, gen.prompts[0], "Assistant: first answer")
	assert.Contains(t, gen.prompts[0], "how to scale?")
	assert.Equal(t, prompts.KindFollowUp, obs.events[0].Kind)
}

func TestAskFollowUpEmptyReply(t *testing.T) {
	c, _ := newTestClient(t, &fakeGenerator{response: ""})
	got, err := c.AskFollowUp(context.Background(), "text", nil, nil, nil, "q")
	require.NoError(t, err)
	assert.Empty(t, got)
}
