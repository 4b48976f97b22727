package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pavelanni/reassess/internal/model"
)

// validator checks a decoded value before it is handed to the wizard.
type validator[T any] func(T) error

// decodeJSON parses the model output into T. It tolerates one surrounding
// markdown code fence and nothing else: no partial recovery.
func decodeJSON[T any](raw string, validate validator[T]) (T, error) {
	var zero T

	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return zero, &MalformedError{Raw: raw, Cause: errors.New("empty response")}
	}

	var result T
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return zero, &MalformedError{Raw: raw, Cause: err}
	}

	if validate != nil {
		if err := validate(result); err != nil {
			return zero, &MalformedError{Raw: raw, Cause: fmt.Errorf("validation failed: %w", err)}
		}
	}
	return result, nil
}

// stripCodeFence removes a leading ``` or ```json line and a trailing ```.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimPrefix(s, "JSON")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func validateAnalysis(a model.SkillAnalysis) error {
	if len(a.CurrentSkills) == 0 && len(a.SuggestedSkills) == 0 {
		return errors.New("no skills in analysis")
	}
	for _, s := range append(append([]model.Skill{}, a.CurrentSkills...), a.SuggestedSkills...) {
		if strings.TrimSpace(s.Name) == "" {
			return errors.New("skill without a name")
		}
		if s.BloomLevel == "" {
			return fmt.Errorf("skill %q has no bloom level", s.Name)
		}
	}
	return nil
}

func validateStrategies(groups []model.AssessmentMethod) error {
	if len(groups) == 0 {
		return errors.New("no strategy groups")
	}
	normalizeStrategies(groups)
	for i, g := range groups {
		if len(g.Skills) == 0 {
			return fmt.Errorf("group %d has no skills", i)
		}
		if !g.Type.Valid() {
			return fmt.Errorf("group %d has unknown type %q", i, g.Type)
		}
	}
	return nil
}

func validateRephrasing(r model.Rephrasing) error {
	if len(r.Sections) == 0 {
		return errors.New("no sections")
	}
	normalizeAudience(r.Sections)
	for i, s := range r.Sections {
		if s.Audience != model.AudienceStudent && s.Audience != model.AudienceLecturer {
			return fmt.Errorf("section %d has unknown audience %q", i, s.Audience)
		}
	}
	return nil
}

func validateRubric(rows []model.RubricRow) error {
	if len(rows) == 0 {
		return errors.New("empty rubric")
	}
	for i, r := range rows {
		if strings.TrimSpace(r.Criterion) == "" {
			return fmt.Errorf("rubric row %d has no criterion", i)
		}
	}
	return nil
}

// normalizeStrategies folds the type field to its canonical spelling in place.
func normalizeStrategies(groups []model.AssessmentMethod) {
	for i := range groups {
		switch {
		case strings.EqualFold(string(groups[i].Type), string(model.CategoryFaceToFace)):
			groups[i].Type = model.CategoryFaceToFace
		case strings.EqualFold(string(groups[i].Type), string(model.CategorySubmission)):
			groups[i].Type = model.CategorySubmission
		}
	}
}

func normalizeAudience(sections []model.TaskSection) {
	for i := range sections {
		sections[i].Audience = model.Audience(strings.ToLower(strings.TrimSpace(string(sections[i].Audience))))
	}
}
