package wizard

import (
	"context"
	"slices"
	"strings"

	"github.com/pavelanni/reassess/internal/model"
)

// RequestStrategies asks the model to group the selected skills. Each group's
// user choice is seeded from the suggestion and the flow moves to step 3.
func (s *Session) RequestStrategies(ctx context.Context) error {
	s.mu.Lock()
	if len(s.st.SelectedSkills) == 0 {
		s.mu.Unlock()
		return validationf("select at least one skill")
	}
	epoch, err := s.begin()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	skills := slices.Clone(s.st.SelectedSkills)
	n := s.st.NumStudents
	s.mu.Unlock()

	groups, err := s.ai.GenerateStrategies(ctx, skills, n)

	s.mu.Lock()
	defer s.mu.Unlock()
	if staleErr := s.end(epoch); staleErr != nil {
		return staleErr
	}
	if err != nil {
		s.fail("NoticeStrategiesFailed", err)
		return err
	}

	seen := make(map[string]bool, len(groups))
	seeded := make([]model.AssessmentMethod, 0, len(groups))
	for _, g := range groups {
		if g.ID == "" || seen[g.ID] {
			g.ID = s.newID()
		}
		seen[g.ID] = true
		g.Skills = slices.Clone(g.Skills)
		g.UserSelectedCategory = g.Type
		g.UserSelectedMethod = g.Method
		seeded = append(seeded, g)
	}
	s.st.Strategies = seeded
	s.advance(StepStrategies)
	return nil
}

// UpdateStrategySelection overwrites the user's category and method for the
// group at index. An empty method clears the previous choice.
func (s *Session) UpdateStrategySelection(index int, category model.Category, method string) error {
	if !category.Valid() {
		return validationf("unknown category %q", category)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.st.Strategies) {
		return validationf("no strategy group at index %d", index)
	}
	s.st.Strategies[index].UserSelectedCategory = category
	s.st.Strategies[index].UserSelectedMethod = strings.TrimSpace(method)
	return nil
}

// MoveSkillToGroup moves a skill into the group with targetID, deleting any
// group it leaves empty. An unknown target leaves the state unchanged.
func (s *Session) MoveSkillToGroup(skill, targetID string) error {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return validationf("skill name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.IndexFunc(s.st.Strategies, func(g model.AssessmentMethod) bool { return g.ID == targetID }) < 0 {
		return validationf("no strategy group with id %q", targetID)
	}

	out := make([]model.AssessmentMethod, 0, len(s.st.Strategies))
	for _, g := range s.st.Strategies {
		g.Skills = slices.DeleteFunc(slices.Clone(g.Skills), func(sk string) bool { return sk == skill })
		if g.ID == targetID {
			g.Skills = append(g.Skills, skill)
		}
		if len(g.Skills) > 0 {
			out = append(out, g)
		}
	}
	s.st.Strategies = out
	return nil
}

// AddNewGroup appends a group seeded according to req. The seeded skill is
// first removed from every existing group, and groups left empty are deleted.
func (s *Session) AddNewGroup(req model.NewGroupRequest) (string, error) {
	l := labelsFor(s.lang)
	g := model.AssessmentMethod{Explanation: l.NewGroupNote}

	switch r := req.(type) {
	case model.FromSkill:
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return "", validationf("skill name is required")
		}
		g.Skills = []string{name}
	case model.BlankGroup:
		g.Skills = []string{l.PlaceholderSkill}
	case model.DefenseSlot:
		g.Skills = []string{l.DefenseSkill}
		g.Method = l.OralExam
		g.Type = model.CategoryFaceToFace
		g.Explanation = l.DefenseNote
		g.UserSelectedCategory = model.CategoryFaceToFace
		g.UserSelectedMethod = l.OralExam
	default:
		return "", validationf("unknown new group request %T", req)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.uniqueID()
	s.st.Strategies = append(withoutSkill(s.st.Strategies, g.Skills[0]), g)
	return g.ID, nil
}

// uniqueID returns a group ID not used by any current group. Caller holds the lock.
func (s *Session) uniqueID() string {
	for {
		id := s.newID()
		if !slices.ContainsFunc(s.st.Strategies, func(g model.AssessmentMethod) bool { return g.ID == id }) {
			return id
		}
	}
}

// DefenseSuggested reports whether the view should offer an oral defense
// stage after group i: it is the last group, it is an open submission and
// there are fewer than three groups.
func (s *Session) DefenseSuggested(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return defenseSuggested(s.st.Strategies, i)
}

func defenseSuggested(groups []model.AssessmentMethod, i int) bool {
	return i == len(groups)-1 &&
		groups[i].UserSelectedCategory == model.CategorySubmission &&
		len(groups) < 3
}

// withoutSkill returns a copy of groups with skill removed everywhere and
// empty groups dropped.
func withoutSkill(groups []model.AssessmentMethod, skill string) []model.AssessmentMethod {
	out := make([]model.AssessmentMethod, 0, len(groups))
	for _, g := range groups {
		g.Skills = slices.DeleteFunc(slices.Clone(g.Skills), func(sk string) bool { return sk == skill })
		if len(g.Skills) == 0 {
			continue
		}
		out = append(out, g)
	}
	return out
}

// DefenseSuggested is the view-side form of Session.DefenseSuggested.
func (st State) DefenseSuggested(i int) bool { return defenseSuggested(st.Strategies, i) }
