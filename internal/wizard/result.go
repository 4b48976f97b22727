package wizard

import (
	"context"
	"slices"
	"strings"

	"github.com/pavelanni/reassess/internal/llm/prompts"
	"github.com/pavelanni/reassess/internal/model"
)

// RequestRephrase rewrites the assignment into sections. Every group must
// have a chosen method; otherwise no call is made and the step stays at 3.
func (s *Session) RequestRephrase(ctx context.Context) error {
	s.mu.Lock()
	if len(s.st.Strategies) == 0 {
		s.mu.Unlock()
		return validationf("no strategy groups")
	}
	for i, g := range s.st.Strategies {
		if strings.TrimSpace(g.UserSelectedMethod) == "" {
			s.mu.Unlock()
			return validationf("group %d has no assessment method", i+1)
		}
	}
	epoch, err := s.begin()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	text := s.st.AssignmentText
	skills := slices.Clone(s.st.SelectedSkills)
	groups := cloneGroups(s.st.Strategies)
	n := s.st.NumStudents
	s.mu.Unlock()

	r, err := s.ai.Rephrase(ctx, text, skills, groups, n)

	s.mu.Lock()
	defer s.mu.Unlock()
	if staleErr := s.end(epoch); staleErr != nil {
		return staleErr
	}
	if err != nil {
		s.fail("NoticeRephraseFailed", err)
		return err
	}
	sections := make([]model.SectionState, len(r.Sections))
	for i, sec := range r.Sections {
		sections[i] = model.SectionState{TaskSection: sec, Status: model.SectionPending}
	}
	s.st.Sections = sections
	s.sectionsGen++
	s.st.PracticalTips = r.PracticalTips
	s.st.Rubric = nil
	s.advance(StepResult)
	return nil
}

// UpdateSectionStatus approves or removes the section at index.
func (s *Session) UpdateSectionStatus(index int, status model.SectionStatus) error {
	if status != model.SectionApproved && status != model.SectionRemoved {
		return validationf("unknown section status %q", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSection(index); err != nil {
		return err
	}
	s.st.Sections[index].Status = status
	return nil
}

// UpdateSectionContent replaces the body of the section at index.
func (s *Session) UpdateSectionContent(index int, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSection(index); err != nil {
		return err
	}
	s.st.Sections[index].Content = content
	return nil
}

// SaveSectionContent replaces the body of the section at index and leaves
// edit mode.
func (s *Session) SaveSectionContent(index int, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSection(index); err != nil {
		return err
	}
	s.st.Sections[index].Content = content
	s.st.Sections[index].IsEditing = false
	return nil
}

// ToggleSectionEdit flips the editing flag of the section at index.
func (s *Session) ToggleSectionEdit(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSection(index); err != nil {
		return err
	}
	s.st.Sections[index].IsEditing = !s.st.Sections[index].IsEditing
	return nil
}

func (s *Session) checkSection(index int) error {
	if index < 0 || index >= len(s.st.Sections) {
		return validationf("no section at index %d", index)
	}
	return nil
}

// AllSectionsHandled reports whether every section was approved or removed.
func (st State) AllSectionsHandled() bool {
	if len(st.Sections) == 0 {
		return false
	}
	for _, sec := range st.Sections {
		if sec.Status == model.SectionPending {
			return false
		}
	}
	return true
}

// HasApprovedSections reports whether there is anything to export.
func (st State) HasApprovedSections() bool {
	return slices.ContainsFunc(st.Sections, func(sec model.SectionState) bool {
		return sec.Status == model.SectionApproved
	})
}

// RequestRubric generates a rubric from the student-facing sections and
// replaces the current one. It runs independently of the main busy flag.
// A result computed from sections that have since been replaced is dropped.
func (s *Session) RequestRubric(ctx context.Context) error {
	s.mu.Lock()
	sections := taskSections(s.st.Sections)
	if len(prompts.StudentSections(sections)) == 0 {
		s.mu.Unlock()
		return validationf("no student-facing sections")
	}
	if s.st.RubricBusy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.st.RubricBusy = true
	epoch, gen := s.epoch, s.sectionsGen
	s.mu.Unlock()

	rows, err := s.ai.GenerateRubric(ctx, sections)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return ErrStale
	}
	s.st.RubricBusy = false
	if gen != s.sectionsGen {
		return ErrStale
	}
	if err != nil {
		s.fail("NoticeRubricFailed", err)
		return err
	}
	s.st.Rubric = rows
	return nil
}

// UpdateRubricCell edits one cell of the rubric.
func (s *Session) UpdateRubricCell(row int, field model.RubricField, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 0 || row >= len(s.st.Rubric) {
		return validationf("no rubric row %d", row)
	}
	r := &s.st.Rubric[row]
	switch field {
	case model.RubricCriterion:
		r.Criterion = value
	case model.RubricExcellent:
		r.Excellent = value
	case model.RubricGood:
		r.Good = value
	case model.RubricNeedsImprovement:
		r.NeedsImprovement = value
	default:
		return validationf("unknown rubric field %q", field)
	}
	return nil
}

// SubmitFollowUp appends the question to the transcript, sends the whole
// conversation and appends the answer. A blank question does nothing. The
// question stays in the transcript when the call fails.
func (s *Session) SubmitFollowUp(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	s.mu.Lock()
	epoch, err := s.begin()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	history := slices.Clone(s.st.Chat)
	s.st.Chat = append(s.st.Chat, model.ChatMessage{Role: model.ChatUser, Text: question})
	text := s.st.AssignmentText
	sections := taskSections(s.st.Sections)
	groups := cloneGroups(s.st.Strategies)
	s.mu.Unlock()

	answer, err := s.ai.AskFollowUp(ctx, text, sections, groups, history, question)

	s.mu.Lock()
	defer s.mu.Unlock()
	if staleErr := s.end(epoch); staleErr != nil {
		return staleErr
	}
	if err != nil {
		s.fail("NoticeFollowUpFailed", err)
		return err
	}
	s.st.Chat = append(s.st.Chat, model.ChatMessage{Role: model.ChatModel, Text: answer})
	return nil
}
