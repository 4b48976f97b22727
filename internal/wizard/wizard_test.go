package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/reassess/internal/extract"
	"github.com/pavelanni/reassess/internal/llm"
	"github.com/pavelanni/reassess/internal/model"
)

func TestNewSessionDefaults(t *testing.T) {
	s := newTestSession(t, fullAssistant())
	st := s.Snapshot()
	assert.Equal(t, ModeHome, st.Mode)
	assert.Equal(t, StepInput, st.Step)
	assert.Equal(t, StepInput, st.MaxReachedStep)
	assert.Equal(t, DefaultStudents, st.NumStudents)
}

func TestSetNumStudents(t *testing.T) {
	s := newTestSession(t, fullAssistant())
	require.NoError(t, s.SetNumStudents(120))
	assert.ErrorIs(t, s.SetNumStudents(0), ErrValidation)
	assert.Equal(t, 120, s.Snapshot().NumStudents)
}

func TestAnalyzeSkillsAdvances(t *testing.T) {
	ai := fullAssistant()
	s := atStep(t, ai, StepSkills)

	st := s.Snapshot()
	assert.Equal(t, ModeRedesign, st.Mode)
	assert.Equal(t, StepSkills, st.Step)
	assert.Equal(t, StepSkills, st.MaxReachedStep)
	assert.Equal(t, ai.analysis.CurrentSkills, st.SelectedSkills)
	assert.Empty(t, st.CustomSkills)
	assert.False(t, st.Busy)
	_, isText := ai.lastInput.(model.TextInput)
	assert.True(t, isText)
}

func TestAnalyzeSkillsRequiresInput(t *testing.T) {
	ai := fullAssistant()
	s := newTestSession(t, ai)
	s.SetAssignmentText("   \n ")

	err := s.AnalyzeSkills(context.Background())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, ai.count("analyze"))
}

func TestAnalyzeSkillsMalformedKeepsStep(t *testing.T) {
	ai := fullAssistant()
	ai.analysis = nil
	ai.analyzeErr = &llm.MalformedError{Raw: "not json", Cause: errors.New("invalid character")}
	s := newTestSession(t, ai)
	s.Start()
	s.SetAssignmentText("Some assignment")

	err := s.AnalyzeSkills(context.Background())
	require.ErrorIs(t, err, llm.ErrMalformedResponse)

	st := s.Snapshot()
	assert.Equal(t, StepInput, st.Step)
	assert.Equal(t, StepInput, st.MaxReachedStep)
	assert.Nil(t, st.Analysis)
	assert.False(t, st.Busy)

	n := s.TakeNotice()
	require.NotNil(t, n)
	assert.Equal(t, NoticeError, n.Level)
	assert.Equal(t, "NoticeAnalyzeFailed", n.MessageID)
	assert.Equal(t, "CauseMalformed", n.Cause)
	assert.Nil(t, s.TakeNotice(), "notice is cleared after it is taken")
}

func TestAnalyzeSkillsNotConfigured(t *testing.T) {
	ai := fullAssistant()
	ai.analyzeErr = llm.ErrNotConfigured
	s := newTestSession(t, ai)
	s.SetAssignmentText("text")

	require.ErrorIs(t, s.AnalyzeSkills(context.Background()), llm.ErrNotConfigured)
	assert.Equal(t, "CauseNotConfigured", s.TakeNotice().Cause)
}

func TestAttachDocument(t *testing.T) {
	ai := fullAssistant()
	s := newTestSession(t, ai)

	pdf := extract.Document{Name: "brief.pdf", File: &model.FilePayload{Name: "brief.pdf", Data: []byte("%PDF"), MIMEType: "application/pdf"}}
	s.AttachDocument(pdf)
	require.NotNil(t, s.Snapshot().Staged)

	// A binary alone is enough to analyse.
	require.NoError(t, s.AnalyzeSkills(context.Background()))
	bin, ok := ai.lastInput.(model.BinaryInput)
	require.True(t, ok)
	assert.Equal(t, "application/pdf", bin.Upload.MIMEType)

	s.SetAssignmentText("Typed intro")
	s.AttachDocument(extract.Document{Name: "task.docx", Text: "Extracted body"})
	st := s.Snapshot()
	assert.Nil(t, st.Staged, "extracted text clears the staged binary")
	assert.Equal(t, "Typed intro\n\nExtracted body", st.AssignmentText)
}

func TestToggleSkillTwiceRestores(t *testing.T) {
	s := atStep(t, fullAssistant(), StepSkills)
	before := s.Snapshot().SelectedSkills

	for _, sk := range append(sampleAnalysis().CurrentSkills, sampleAnalysis().SuggestedSkills...) {
		s.ToggleSkill(sk)
		s.ToggleSkill(sk)
		assert.ElementsMatch(t, before, s.Snapshot().SelectedSkills, "toggle %q twice", sk.Name)
	}
}

func TestToggleSkillKeepsOrderOfOthers(t *testing.T) {
	s := atStep(t, fullAssistant(), StepSkills)
	s.ToggleSkill(model.Skill{Name: "Explain the model"})

	var names []string
	for _, sk := range s.Snapshot().SelectedSkills {
		names = append(names, sk.Name)
	}
	assert.Equal(t, []string{"Recall definitions", "Apply the formula"}, names)
}

func TestAddCustomSkill(t *testing.T) {
	s := atStep(t, fullAssistant(), StepSkills)

	s.AddCustomSkill(model.Skill{Name: "   "})
	assert.Len(t, s.Snapshot().SelectedSkills, 3, "blank name is ignored")

	s.AddCustomSkill(model.Skill{Name: "  Design an experiment ", BloomLevel: model.BloomCreate})
	st := s.Snapshot()
	require.Len(t, st.CustomSkills, 1)
	assert.Equal(t, "Design an experiment", st.CustomSkills[0].Name)
	assert.Equal(t, "Added manually by the lecturer", st.CustomSkills[0].Reasoning)
	assert.Equal(t, "Design an experiment", st.SelectedSkills[3].Name)

	s.AddCustomSkill(model.Skill{Name: "Mystery"})
	sk, ok := s.FindSkill("Mystery")
	require.True(t, ok)
	assert.Equal(t, model.BloomApply, sk.BloomLevel)
}

func TestRequestStrategiesSeedsSelection(t *testing.T) {
	s := atStep(t, fullAssistant(), StepStrategies)

	st := s.Snapshot()
	assert.Equal(t, StepStrategies, st.Step)
	require.Len(t, st.Strategies, 2)
	for _, g := range st.Strategies {
		assert.Equal(t, g.Type, g.UserSelectedCategory)
		assert.Equal(t, g.Method, g.UserSelectedMethod)
	}
}

func TestRequestStrategiesRequiresSelection(t *testing.T) {
	ai := fullAssistant()
	s := atStep(t, ai, StepSkills)
	for _, sk := range sampleAnalysis().CurrentSkills {
		s.ToggleSkill(sk)
	}

	assert.ErrorIs(t, s.RequestStrategies(context.Background()), ErrValidation)
	assert.Zero(t, ai.count("strategies"))
	assert.Equal(t, StepSkills, s.Snapshot().Step)
}

func TestRequestStrategiesFailureKeepsState(t *testing.T) {
	ai := fullAssistant()
	ai.groupsErr = errors.New("connection reset")
	s := atStep(t, ai, StepSkills)
	before := s.Snapshot()

	require.Error(t, s.RequestStrategies(context.Background()))
	after := s.Snapshot()
	assert.Equal(t, StepSkills, after.Step)
	assert.Equal(t, before.MaxReachedStep, after.MaxReachedStep)
	assert.Nil(t, after.Strategies)
	assert.Equal(t, before.SelectedSkills, after.SelectedSkills)
	assert.False(t, after.Busy)

	n := s.TakeNotice()
	require.NotNil(t, n)
	assert.Equal(t, "NoticeStrategiesFailed", n.MessageID)
}

func TestRequestStrategiesFixesIDs(t *testing.T) {
	ai := fullAssistant()
	ai.groups = []model.AssessmentMethod{
		{ID: "", Skills: []string{"a"}, Method: "m", Type: model.CategorySubmission},
		{ID: "dup", Skills: []string{"b"}, Method: "m", Type: model.CategorySubmission},
		{ID: "dup", Skills: []string{"c"}, Method: "m", Type: model.CategorySubmission},
	}
	s := atStep(t, ai, StepStrategies)

	ids := map[string]bool{}
	for _, g := range s.Snapshot().Strategies {
		assert.NotEmpty(t, g.ID)
		assert.False(t, ids[g.ID], "duplicate id %q", g.ID)
		ids[g.ID] = true
	}
}

func TestUpdateStrategySelection(t *testing.T) {
	s := atStep(t, fullAssistant(), StepStrategies)

	require.NoError(t, s.UpdateStrategySelection(0, model.CategorySubmission, ""))
	g := s.Snapshot().Strategies[0]
	assert.Equal(t, model.CategorySubmission, g.UserSelectedCategory)
	assert.Empty(t, g.UserSelectedMethod, "omitted method clears the prior choice")
	assert.Equal(t, []string{"Recall definitions", "Explain the model"}, g.Skills)
	assert.Equal(t, "Quiz", g.Method, "suggestion is untouched")

	assert.ErrorIs(t, s.UpdateStrategySelection(5, model.CategorySubmission, "x"), ErrValidation)
	assert.ErrorIs(t, s.UpdateStrategySelection(0, "Hybrid", "x"), ErrValidation)
}

func groupsContaining(groups []model.AssessmentMethod, skill string) []string {
	var ids []string
	for _, g := range groups {
		for _, sk := range g.Skills {
			if sk == skill {
				ids = append(ids, g.ID)
			}
		}
	}
	return ids
}

func assertNoEmptyGroups(t *testing.T, groups []model.AssessmentMethod) {
	t.Helper()
	for _, g := range groups {
		assert.NotEmpty(t, g.Skills, "group %q is empty", g.ID)
	}
}

func TestMoveSkillToGroup(t *testing.T) {
	s := atStep(t, fullAssistant(), StepStrategies)

	require.NoError(t, s.MoveSkillToGroup("Recall definitions", "group-2"))
	st := s.Snapshot()
	assert.Equal(t, []string{"group-2"}, groupsContaining(st.Strategies, "Recall definitions"))
	assert.Equal(t, []string{"Apply the formula", "Recall definitions"}, st.Strategies[1].Skills)
	assertNoEmptyGroups(t, st.Strategies)
}

func TestMoveSkillToGroupPrunesSource(t *testing.T) {
	s := atStep(t, fullAssistant(), StepStrategies)

	require.NoError(t, s.MoveSkillToGroup("Apply the formula", "group-1"))
	st := s.Snapshot()
	require.Len(t, st.Strategies, 1)
	assert.Equal(t, "group-1", st.Strategies[0].ID)
	assert.Equal(t, []string{"group-1"}, groupsContaining(st.Strategies, "Apply the formula"))
}

func TestMoveBlankSkillRejected(t *testing.T) {
	s := atStep(t, fullAssistant(), StepStrategies)
	before := s.Snapshot().Strategies

	assert.ErrorIs(t, s.MoveSkillToGroup("", "group-2"), ErrValidation)
	assert.ErrorIs(t, s.MoveSkillToGroup("   ", "group-2"), ErrValidation)
	assert.Equal(t, before, s.Snapshot().Strategies)
}

func TestMoveSkillToOwnGroupKeepsIt(t *testing.T) {
	s := atStep(t, fullAssistant(), StepStrategies)

	require.NoError(t, s.MoveSkillToGroup("Apply the formula", "group-2"))
	st := s.Snapshot()
	require.Len(t, st.Strategies, 2)
	assert.Equal(t, []string{"Apply the formula"}, st.Strategies[1].Skills)
	assert.Equal(t, "Project", st.Strategies[1].Method)
}

func TestMoveSkillToUnknownGroup(t *testing.T) {
	s := atStep(t, fullAssistant(), StepStrategies)
	before := s.Snapshot().Strategies

	assert.ErrorIs(t, s.MoveSkillToGroup("Recall definitions", "nope"), ErrValidation)
	assert.Equal(t, before, s.Snapshot().Strategies)
}

func TestAddNewGroupFromSkillPrunes(t *testing.T) {
	s := atStep(t, fullAssistant(), StepStrategies)

	id, err := s.AddNewGroup(model.FromSkill{Name: "Apply the formula"})
	require.NoError(t, err)
	assert.Equal(t, "new-1", id)

	st := s.Snapshot()
	require.Len(t, st.Strategies, 2, "group-2 was emptied and pruned")
	assert.Equal(t, "group-1", st.Strategies[0].ID)
	g := st.Strategies[1]
	assert.Equal(t, []string{"Apply the formula"}, g.Skills)
	assert.Empty(t, g.Method)
	assert.Empty(t, g.UserSelectedMethod)
	assert.Empty(t, g.UserSelectedCategory)
	assert.Equal(t, "New group.", g.Explanation)
	assertNoEmptyGroups(t, st.Strategies)
}

func TestAddNewGroupVariants(t *testing.T) {
	s := atStep(t, fullAssistant(), StepStrategies)

	_, err := s.AddNewGroup(model.BlankGroup{})
	require.NoError(t, err)
	_, err = s.AddNewGroup(model.DefenseSlot{})
	require.NoError(t, err)

	st := s.Snapshot()
	require.Len(t, st.Strategies, 4)
	blank, defense := st.Strategies[2], st.Strategies[3]
	assert.Equal(t, []string{"New skill"}, blank.Skills)

	assert.Equal(t, []string{labelsFor("en").DefenseSkill}, defense.Skills)
	assert.Equal(t, model.CategoryFaceToFace, defense.UserSelectedCategory)
	assert.Equal(t, "Individual oral exam", defense.UserSelectedMethod)
	assert.Contains(t, defense.Explanation, "AI")
	assert.NotEqual(t, blank.ID, defense.ID)

	_, err = s.AddNewGroup(model.FromSkill{Name: " "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddNewGroupUniqueIDs(t *testing.T) {
	ai := fullAssistant()
	s := NewSession(ai, Options{Language: "en", NewID: func() string { return "group-1" }})
	s.SetAssignmentText("text")
	require.NoError(t, s.AnalyzeSkills(context.Background()))
	ai.groups = []model.AssessmentMethod{{ID: "group-1", Skills: []string{"a"}, Method: "m", Type: model.CategoryFaceToFace}}
	require.NoError(t, s.RequestStrategies(context.Background()))

	// Fixed generator collides with the existing group; use a counter after the first call.
	calls := 0
	s.newID = func() string {
		calls++
		if calls == 1 {
			return "group-1"
		}
		return "group-x"
	}
	id, err := s.AddNewGroup(model.BlankGroup{})
	require.NoError(t, err)
	assert.Equal(t, "group-x", id)
}

func TestDefenseSuggested(t *testing.T) {
	s := atStep(t, fullAssistant(), StepStrategies)

	assert.True(t, s.DefenseSuggested(1), "last group, submission, two groups")
	assert.False(t, s.DefenseSuggested(0), "not the last group")

	require.NoError(t, s.UpdateStrategySelection(1, model.CategoryFaceToFace, "Viva"))
	assert.False(t, s.DefenseSuggested(1))

	require.NoError(t, s.UpdateStrategySelection(1, model.CategorySubmission, "Essay"))
	_, err := s.AddNewGroup(model.BlankGroup{})
	require.NoError(t, err)
	require.NoError(t, s.UpdateStrategySelection(2, model.CategorySubmission, "Essay"))
	assert.False(t, s.Snapshot().DefenseSuggested(2), "three groups already")
}

func TestRequestRephrasePreconditionBlocksCall(t *testing.T) {
	ai := fullAssistant()
	s := atStep(t, ai, StepStrategies)
	require.NoError(t, s.UpdateStrategySelection(1, model.CategorySubmission, ""))

	err := s.RequestRephrase(context.Background())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, ai.count("rephrase"))
	assert.Equal(t, StepStrategies, s.Snapshot().Step)
}

func TestRequestRephraseSeedsSections(t *testing.T) {
	s := atStep(t, fullAssistant(), StepResult)

	st := s.Snapshot()
	assert.Equal(t, StepResult, st.Step)
	assert.Equal(t, StepResult, st.MaxReachedStep)
	assert.Equal(t, "Keep it short", st.PracticalTips)
	require.Len(t, st.Sections, 3)
	for _, sec := range st.Sections {
		assert.Equal(t, model.SectionPending, sec.Status)
		assert.False(t, sec.IsEditing)
	}
	assert.False(t, st.AllSectionsHandled())
}

func TestRequestRephraseFailureKeepsState(t *testing.T) {
	ai := fullAssistant()
	s := atStep(t, ai, StepStrategies)
	before := s.Snapshot()
	ai.rephraseErr = errors.New("connection refused")

	require.Error(t, s.RequestRephrase(context.Background()))
	after := s.Snapshot()
	assert.Equal(t, before.Strategies, after.Strategies)
	assert.Equal(t, StepStrategies, after.Step)
	assert.Empty(t, after.Sections)
	assert.Equal(t, "CauseTransport", s.TakeNotice().Cause)
}

func TestSectionOperations(t *testing.T) {
	s := atStep(t, fullAssistant(), StepResult)

	require.NoError(t, s.ToggleSectionEdit(0))
	require.NoError(t, s.UpdateSectionContent(0, "Write three pages"))
	require.NoError(t, s.ToggleSectionEdit(0))
	require.NoError(t, s.UpdateSectionStatus(0, model.SectionApproved))
	require.NoError(t, s.UpdateSectionStatus(1, model.SectionRemoved))
	require.NoError(t, s.UpdateSectionStatus(2, model.SectionApproved))

	st := s.Snapshot()
	assert.Equal(t, "Write three pages", st.Sections[0].Content)
	assert.False(t, st.Sections[0].IsEditing)
	assert.True(t, st.AllSectionsHandled())
	assert.True(t, st.HasApprovedSections())

	assert.ErrorIs(t, s.UpdateSectionStatus(9, model.SectionApproved), ErrValidation)
	assert.ErrorIs(t, s.UpdateSectionStatus(0, "archived"), ErrValidation)
	assert.ErrorIs(t, s.ToggleSectionEdit(-1), ErrValidation)
}

func TestSaveSectionContentLeavesEditMode(t *testing.T) {
	s := atStep(t, fullAssistant(), StepResult)

	require.NoError(t, s.ToggleSectionEdit(0))
	require.NoError(t, s.SaveSectionContent(0, "Write three pages"))
	sec := s.Snapshot().Sections[0]
	assert.Equal(t, "Write three pages", sec.Content)
	assert.False(t, sec.IsEditing)

	// Saving again outside edit mode must not re-enter it.
	require.NoError(t, s.SaveSectionContent(0, "Write four pages"))
	sec = s.Snapshot().Sections[0]
	assert.Equal(t, "Write four pages", sec.Content)
	assert.False(t, sec.IsEditing)

	assert.ErrorIs(t, s.SaveSectionContent(7, "x"), ErrValidation)
}

func TestGoToStepMonotonic(t *testing.T) {
	s := atStep(t, fullAssistant(), StepStrategies)

	assert.False(t, s.GoToStep(StepResult), "step 4 not reached yet")
	assert.Equal(t, StepStrategies, s.Snapshot().Step)

	assert.True(t, s.GoToStep(StepInput))
	st := s.Snapshot()
	assert.Equal(t, StepInput, st.Step)
	assert.Equal(t, StepStrategies, st.MaxReachedStep, "going back never lowers the watermark")
	assert.NotEmpty(t, st.Strategies, "revisiting does not invalidate later state")

	// Re-running analysis from step 1 advances to 2 but keeps the watermark at 3.
	require.NoError(t, s.AnalyzeSkills(context.Background()))
	st = s.Snapshot()
	assert.Equal(t, StepSkills, st.Step)
	assert.Equal(t, StepStrategies, st.MaxReachedStep)
}

func TestGoBack(t *testing.T) {
	s := atStep(t, fullAssistant(), StepSkills)

	s.GoBack()
	assert.Equal(t, StepInput, s.Snapshot().Step)
	s.GoBack()
	st := s.Snapshot()
	assert.Equal(t, ModeHome, st.Mode)
	assert.Equal(t, StepInput, st.Step)
}

func TestResetKeepsClassSize(t *testing.T) {
	s := atStep(t, fullAssistant(), StepResult)
	require.NoError(t, s.SetNumStudents(80))
	require.NoError(t, s.SubmitFollowUp(context.Background(), "q"))

	s.Reset()
	st := s.Snapshot()
	assert.Equal(t, ModeHome, st.Mode)
	assert.Equal(t, StepInput, st.MaxReachedStep)
	assert.Empty(t, st.AssignmentText)
	assert.Nil(t, st.Analysis)
	assert.Empty(t, st.Strategies)
	assert.Empty(t, st.Sections)
	assert.Empty(t, st.Chat)
	assert.Equal(t, 80, st.NumStudents)
}

func TestRequestRubric(t *testing.T) {
	ai := fullAssistant()
	s := atStep(t, ai, StepResult)

	require.NoError(t, s.RequestRubric(context.Background()))
	st := s.Snapshot()
	require.Len(t, st.Rubric, 1)
	assert.False(t, st.RubricBusy)

	require.NoError(t, s.UpdateRubricCell(0, model.RubricGood, "Solid"))
	assert.Equal(t, "Solid", s.Snapshot().Rubric[0].Good)
	assert.ErrorIs(t, s.UpdateRubricCell(3, model.RubricGood, "x"), ErrValidation)
	assert.ErrorIs(t, s.UpdateRubricCell(0, "score", "x"), ErrValidation)

	// Regenerating replaces the rubric wholesale.
	ai.rubric = []model.RubricRow{{Criterion: "A"}, {Criterion: "B"}}
	require.NoError(t, s.RequestRubric(context.Background()))
	assert.Equal(t, ai.rubric, s.Snapshot().Rubric)
}

func TestRequestRubricFailureKeepsRubric(t *testing.T) {
	ai := fullAssistant()
	s := atStep(t, ai, StepResult)
	require.NoError(t, s.RequestRubric(context.Background()))
	before := s.Snapshot().Rubric

	ai.rubricErr = errors.New("timeout")
	ai.rubric = []model.RubricRow{{Criterion: "Other"}}
	require.Error(t, s.RequestRubric(context.Background()))

	st := s.Snapshot()
	assert.Equal(t, before, st.Rubric)
	assert.False(t, st.RubricBusy)
	assert.Equal(t, StepResult, st.Step)
	n := s.TakeNotice()
	require.NotNil(t, n)
	assert.Equal(t, "NoticeRubricFailed", n.MessageID)
}

func TestSubmitFollowUp(t *testing.T) {
	ai := fullAssistant()
	s := atStep(t, ai, StepResult)
	ctx := context.Background()

	require.NoError(t, s.SubmitFollowUp(ctx, "   "))
	assert.Zero(t, ai.count("followup"), "blank question is a no-op")

	require.NoError(t, s.SubmitFollowUp(ctx, "How do I scale the viva?"))
	ai.answer = ""
	require.NoError(t, s.SubmitFollowUp(ctx, "And the rubric?"))

	chat := s.Snapshot().Chat
	require.Len(t, chat, 4)
	assert.Equal(t, model.ChatMessage{Role: model.ChatUser, Text: "How do I scale the viva?"}, chat[0])
	assert.Equal(t, model.ChatMessage{Role: model.ChatModel, Text: "Use a short viva."}, chat[1])
	assert.Equal(t, model.ChatMessage{Role: model.ChatModel, Text: ""}, chat[3])
	assert.Len(t, ai.lastHistory, 2, "the prior transcript is sent in full")
	assert.Equal(t, "And the rubric?", ai.lastQuestion)
}

func TestSubmitFollowUpFailureKeepsQuestion(t *testing.T) {
	ai := fullAssistant()
	s := atStep(t, ai, StepResult)
	ai.answerErr = errors.New("timeout")

	require.Error(t, s.SubmitFollowUp(context.Background(), "Is this fair?"))
	chat := s.Snapshot().Chat
	require.Len(t, chat, 1)
	assert.Equal(t, model.ChatUser, chat[0].Role)
	assert.Equal(t, "NoticeFollowUpFailed", s.TakeNotice().MessageID)
	assert.False(t, s.Snapshot().Busy)
}

func TestBloomBalance(t *testing.T) {
	s := atStep(t, fullAssistant(), StepSkills)

	// Selected: Remember, Understand, Apply.
	assert.Equal(t, Balance{Low: 67, High: 33}, s.BloomBalance())

	for _, sk := range sampleAnalysis().CurrentSkills {
		s.ToggleSkill(sk)
	}
	// Nothing selected: all four known skills count.
	assert.Equal(t, Balance{Low: 50, High: 50}, s.Snapshot().BloomBalance())
}

func TestMethodOptions(t *testing.T) {
	f2f := MethodOptions("he", model.CategoryFaceToFace)
	assert.Contains(t, f2f, "שאלות לקבוצת המגישים בכיתה", "defense methods are offered face to face")
	seen := map[string]bool{}
	for _, m := range f2f {
		assert.False(t, seen[m], "duplicate option %q", m)
		seen[m] = true
	}
	assert.NotContains(t, MethodOptions("en", model.CategorySubmission), "Individual oral exam")
	assert.Nil(t, MethodOptions("en", ""))
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := atStep(t, fullAssistant(), StepStrategies)
	st := s.Snapshot()
	st.Strategies[0].Skills[0] = "mutated"
	st.SelectedSkills[0].Name = "mutated"

	fresh := s.Snapshot()
	assert.Equal(t, "Recall definitions", fresh.Strategies[0].Skills[0])
	assert.Equal(t, "Recall definitions", fresh.SelectedSkills[0].Name)
}
