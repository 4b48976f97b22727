package wizard

import (
	"slices"

	"github.com/pavelanni/reassess/internal/model"
)

// labels are the fixed strings the wizard writes into state.
type labels struct {
	DefenseSkill     string
	OralExam         string
	DefenseNote      string
	NewGroupNote     string
	PlaceholderSkill string
	ManualReasoning  string
	RubricHeader     [4]string

	FaceToFace []string
	Submission []string
	Defense    []string
}

var labelSets = map[string]labels{
	"he": {
		DefenseSkill:     "הגנה על העבודה (Defense)",
		OralExam:         `בחינה אישית בע"פ`,
		DefenseNote:      "אימות למידה וזהות המגיש (Defense) - מומלץ במיוחד במטלות המותרות לביצוע עם AI.",
		NewGroupNote:     "קבוצה חדשה.",
		PlaceholderSkill: "מיומנות חדשה",
		ManualReasoning:  "הוספה ידנית על ידי המרצה",
		RubricHeader:     [4]string{"קריטריון", "מצטיין", "טוב / עובר", "טעון שיפור"},
		FaceToFace: []string{
			"מבחן כתוב בכיתה",
			"בוחן ממוחשב קצר בכיתה",
			`בחינה אישית בע"פ`,
			"שאלות ידע מהירות בשיעור",
			"הצגת תוצר קבוצתי",
			"הערכת דיון קבוצתי",
			"כתיבה והגשת עבודה בכיתה",
			"הערכה מדגמית",
		},
		Submission: []string{
			"כתיבת משימה עם AI",
			"משוב על תוצר AI",
			"הערכת עמיתים",
			"הערכה עצמית",
			"סימולציה שפותחה עם AI",
			"יומן רפלקציה",
			"תיעוד שלבי העבודה",
		},
		Defense: []string{
			`בחינה אישית בע"פ`,
			"הערכה מדגמית",
			"שאלות לקבוצת המגישים בכיתה",
		},
	},
	"en": {
		DefenseSkill:     "Defense of the work",
		OralExam:         "Individual oral exam",
		DefenseNote:      "Verifies learning and the submitter's identity. Recommended for assignments that may be completed with AI.",
		NewGroupNote:     "New group.",
		PlaceholderSkill: "New skill",
		ManualReasoning:  "Added manually by the lecturer",
		RubricHeader:     [4]string{"Criterion", "Excellent", "Good / Pass", "Needs improvement"},
		FaceToFace: []string{
			"In-class written exam",
			"Short in-class computer quiz",
			"Individual oral exam",
			"Quick knowledge questions in class",
			"Group product presentation",
			"Group discussion assessment",
			"In-class writing and submission",
			"Sample-based assessment",
		},
		Submission: []string{
			"Writing a task with AI",
			"Feedback on an AI output",
			"Peer assessment",
			"Self assessment",
			"AI-built simulation",
			"Reflection journal",
			"Documenting the work process",
		},
		Defense: []string{
			"Individual oral exam",
			"Sample-based assessment",
			"In-class questions to the submitting group",
		},
	},
}

func labelsFor(lang string) labels {
	if l, ok := labelSets[lang]; ok {
		return l
	}
	return labelSets["he"]
}

// MethodOptions lists the assessment methods offered for a category.
// Face-to-face groups also get the oral defense methods.
func MethodOptions(lang string, c model.Category) []string {
	l := labelsFor(lang)
	switch c {
	case model.CategoryFaceToFace:
		out := slices.Clone(l.FaceToFace)
		for _, m := range l.Defense {
			if !slices.Contains(out, m) {
				out = append(out, m)
			}
		}
		return out
	case model.CategorySubmission:
		return slices.Clone(l.Submission)
	default:
		return nil
	}
}
