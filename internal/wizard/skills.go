package wizard

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/pavelanni/reassess/internal/model"
)

// AnalyzeSkills classifies the assignment. On success the current skills
// become the selection, custom skills are cleared and the flow moves to step 2.
func (s *Session) AnalyzeSkills(ctx context.Context) error {
	s.mu.Lock()
	in, ok := s.input()
	if !ok {
		s.mu.Unlock()
		return validationf("assignment text or a document is required")
	}
	epoch, err := s.begin()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.st.Mode = ModeRedesign
	s.mu.Unlock()

	analysis, err := s.ai.AnalyzeSkills(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if staleErr := s.end(epoch); staleErr != nil {
		return staleErr
	}
	if err != nil {
		s.fail("NoticeAnalyzeFailed", err)
		return err
	}
	s.st.Analysis = analysis
	s.st.SelectedSkills = slices.Clone(analysis.CurrentSkills)
	s.st.CustomSkills = nil
	s.advance(StepSkills)
	return nil
}

// ToggleSkill removes the skill from the selection if a skill with the same
// name is selected, otherwise appends it.
func (s *Session) ToggleSkill(skill model.Skill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexSkill(s.st.SelectedSkills, skill.Name); i >= 0 {
		s.st.SelectedSkills = slices.Delete(s.st.SelectedSkills, i, i+1)
		return
	}
	s.st.SelectedSkills = append(s.st.SelectedSkills, skill)
}

// AddCustomSkill adds an instructor-defined skill to the custom pool and the
// selection. A blank name, or a name already selected, is ignored.
func (s *Session) AddCustomSkill(skill model.Skill) {
	skill.Name = strings.TrimSpace(skill.Name)
	if skill.Name == "" {
		return
	}
	if skill.BloomLevel == "" {
		skill.BloomLevel = model.BloomApply
	}
	if skill.Reasoning == "" {
		skill.Reasoning = labelsFor(s.lang).ManualReasoning
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if indexSkill(s.st.SelectedSkills, skill.Name) >= 0 {
		return
	}
	s.st.CustomSkills = append(s.st.CustomSkills, skill)
	s.st.SelectedSkills = append(s.st.SelectedSkills, skill)
}

// FindSkill looks a skill up by name among analysed and custom skills.
func (s *Session) FindSkill(name string) (model.Skill, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sk := range s.st.allSkills() {
		if sk.Name == name {
			return sk, true
		}
	}
	return model.Skill{}, false
}

// Balance is the share of lower- and higher-order skills, in percent.
type Balance struct {
	Low  int
	High int
}

// BloomBalance counts the selected skills, or every known skill while
// nothing is selected.
func (s *Session) BloomBalance() Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.bloomBalance()
}

func (st State) bloomBalance() Balance {
	var low, high int
	for _, sk := range st.allSkills() {
		if len(st.SelectedSkills) > 0 && indexSkill(st.SelectedSkills, sk.Name) < 0 {
			continue
		}
		if sk.BloomLevel.LowerOrder() {
			low++
		} else {
			high++
		}
	}
	total := low + high
	if total == 0 {
		return Balance{}
	}
	return Balance{
		Low:  int(math.Round(float64(low) / float64(total) * 100)),
		High: int(math.Round(float64(high) / float64(total) * 100)),
	}
}

func (st State) allSkills() []model.Skill {
	var all []model.Skill
	if st.Analysis != nil {
		all = append(all, st.Analysis.CurrentSkills...)
		all = append(all, st.Analysis.SuggestedSkills...)
	}
	return append(all, st.CustomSkills...)
}

func indexSkill(skills []model.Skill, name string) int {
	return slices.IndexFunc(skills, func(sk model.Skill) bool { return sk.Name == name })
}

// BloomBalance is the view-side form of Session.BloomBalance.
func (st State) BloomBalance() Balance { return st.bloomBalance() }
