package wizard

import (
	"slices"

	"github.com/pavelanni/reassess/internal/model"
)

func (st State) clone() State {
	out := st
	if st.Staged != nil {
		f := *st.Staged
		f.Data = slices.Clone(st.Staged.Data)
		out.Staged = &f
	}
	if st.Analysis != nil {
		a := model.SkillAnalysis{
			CurrentSkills:   slices.Clone(st.Analysis.CurrentSkills),
			SuggestedSkills: slices.Clone(st.Analysis.SuggestedSkills),
		}
		out.Analysis = &a
	}
	out.CustomSkills = slices.Clone(st.CustomSkills)
	out.SelectedSkills = slices.Clone(st.SelectedSkills)
	out.Strategies = cloneGroups(st.Strategies)
	out.Sections = slices.Clone(st.Sections)
	out.Rubric = slices.Clone(st.Rubric)
	out.Chat = slices.Clone(st.Chat)
	if st.Notice != nil {
		n := *st.Notice
		out.Notice = &n
	}
	return out
}

func cloneGroups(groups []model.AssessmentMethod) []model.AssessmentMethod {
	if groups == nil {
		return nil
	}
	out := make([]model.AssessmentMethod, len(groups))
	for i, g := range groups {
		g.Skills = slices.Clone(g.Skills)
		out[i] = g
	}
	return out
}

func taskSections(states []model.SectionState) []model.TaskSection {
	out := make([]model.TaskSection, len(states))
	for i, s := range states {
		out[i] = s.TaskSection
	}
	return out
}
