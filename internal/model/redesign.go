package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BloomLevel is one of the six ordered levels of Bloom's taxonomy.
type BloomLevel string

const (
	BloomRemember   BloomLevel = "Remember"
	BloomUnderstand BloomLevel = "Understand"
	BloomApply      BloomLevel = "Apply"
	BloomAnalyze    BloomLevel = "Analyze"
	BloomEvaluate   BloomLevel = "Evaluate"
	BloomCreate     BloomLevel = "Create"
)

// BloomLevels lists the taxonomy from lowest to highest order.
var BloomLevels = []BloomLevel{
	BloomRemember, BloomUnderstand, BloomApply, BloomAnalyze, BloomEvaluate, BloomCreate,
}

// hebrewBloom maps the Hebrew labels the model is asked to use back to levels.
var hebrewBloom = map[string]BloomLevel{
	"זכירה":  BloomRemember,
	"הבנה":   BloomUnderstand,
	"יישום":  BloomApply,
	"אנליזה": BloomAnalyze,
	"ניתוח":  BloomAnalyze,
	"הערכה":  BloomEvaluate,
	"יצירה":  BloomCreate,
}

// ParseBloomLevel accepts the English level name (any case) or its Hebrew label.
func ParseBloomLevel(s string) (BloomLevel, bool) {
	s = strings.TrimSpace(s)
	for _, l := range BloomLevels {
		if strings.EqualFold(s, string(l)) {
			return l, true
		}
	}
	if l, ok := hebrewBloom[s]; ok {
		return l, true
	}
	return "", false
}

// UnmarshalJSON rejects labels outside the taxonomy.
func (b *BloomLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	l, ok := ParseBloomLevel(s)
	if !ok {
		return fmt.Errorf("unknown bloom level %q", s)
	}
	*b = l
	return nil
}

// LowerOrder reports whether the level is recall or comprehension.
func (b BloomLevel) LowerOrder() bool {
	return b == BloomRemember || b == BloomUnderstand
}

// Skill is a cognitive skill an assignment assesses. Name is unique within a set.
type Skill struct {
	Name       string     `json:"name"`
	BloomLevel BloomLevel `json:"bloomLevel"`
	Reasoning  string     `json:"reasoning"`
}

// SkillAnalysis is the result of classifying an assignment.
type SkillAnalysis struct {
	CurrentSkills   []Skill `json:"currentSkills"`
	SuggestedSkills []Skill `json:"suggestedSkills"`
}

// Category is the delivery setting of an assessment.
type Category string

const (
	// CategoryFaceToFace is a controlled (proctored) setting.
	CategoryFaceToFace Category = "FaceToFace"
	// CategorySubmission is an open, unsupervised submission.
	CategorySubmission Category = "Submission"
)

// Valid reports whether c is one of the two delivery categories.
func (c Category) Valid() bool {
	return c == CategoryFaceToFace || c == CategorySubmission
}

// AssessmentMethod is a strategy group: skills assessed together by one method.
type AssessmentMethod struct {
	ID                   string   `json:"id"`
	Skills               []string `json:"skills"`
	Method               string   `json:"method"`
	Type                 Category `json:"type"`
	Explanation          string   `json:"explanation"`
	UserSelectedCategory Category `json:"userSelectedCategory,omitempty"`
	UserSelectedMethod   string   `json:"userSelectedMethod,omitempty"`
}

// EffectiveMethod returns the user's choice, falling back to the suggestion.
func (a AssessmentMethod) EffectiveMethod() string {
	if a.UserSelectedMethod != "" {
		return a.UserSelectedMethod
	}
	return a.Method
}

// EffectiveCategory returns the user's choice, falling back to the suggestion.
func (a AssessmentMethod) EffectiveCategory() Category {
	if a.UserSelectedCategory != "" {
		return a.UserSelectedCategory
	}
	return a.Type
}

// Audience is who a section of the redesigned assignment addresses.
type Audience string

const (
	AudienceStudent  Audience = "student"
	AudienceLecturer Audience = "lecturer"
)

// TaskSection is one titled block of the redesigned assignment.
type TaskSection struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Audience Audience `json:"audience"`
}

// Rephrasing is the result of the rephrase request.
type Rephrasing struct {
	Sections      []TaskSection `json:"sections"`
	PracticalTips string        `json:"practicalTips"`
}

// SectionStatus tracks the instructor's decision on a section.
type SectionStatus string

const (
	SectionPending  SectionStatus = "pending"
	SectionApproved SectionStatus = "approved"
	SectionRemoved  SectionStatus = "removed"
)

// SectionState is a TaskSection plus wizard-local review fields.
type SectionState struct {
	TaskSection
	Status    SectionStatus `json:"status"`
	IsEditing bool          `json:"isEditing"`
}

// RubricRow is one criterion of a three-level grading rubric.
type RubricRow struct {
	Criterion        string `json:"criterion"`
	Excellent        string `json:"excellent"`
	Good             string `json:"good"`
	NeedsImprovement string `json:"needsImprovement"`
}

// RubricField names an editable rubric column.
type RubricField string

const (
	RubricCriterion        RubricField = "criterion"
	RubricExcellent        RubricField = "excellent"
	RubricGood             RubricField = "good"
	RubricNeedsImprovement RubricField = "needsImprovement"
)

// ChatRole represents a chat message role.
type ChatRole string

const (
	ChatUser  ChatRole = "user"
	ChatModel ChatRole = "model"
)

// ChatMessage is one turn of the follow-up conversation.
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// FilePayload is an uploaded binary forwarded inline to the model.
type FilePayload struct {
	Name     string
	Data     []byte
	MIMEType string
}

// InputPayload is what the skill analysis receives: either text alone or
// text together with one binary document.
type InputPayload interface {
	AssignmentText() string
	File() *FilePayload
	inputPayload()
}

// TextInput is pasted or extracted assignment text.
type TextInput struct {
	Text string
}

func (t TextInput) AssignmentText() string { return t.Text }
func (TextInput) File() *FilePayload       { return nil }
func (TextInput) inputPayload()            {}

// BinaryInput is a staged document (PDF, image) plus whatever text was typed.
type BinaryInput struct {
	Text   string
	Upload FilePayload
}

func (b BinaryInput) AssignmentText() string { return b.Text }
func (b BinaryInput) File() *FilePayload {
	f := b.Upload
	return &f
}
func (BinaryInput) inputPayload() {}

// NewGroupRequest selects how a new strategy group is seeded.
type NewGroupRequest interface {
	newGroupRequest()
}

// FromSkill moves the named skill out of its group into a new one.
type FromSkill struct {
	Name string
}

// BlankGroup adds a group holding a placeholder skill.
type BlankGroup struct{}

// DefenseSlot adds an oral defense stage for AI-completable submissions.
type DefenseSlot struct{}

func (FromSkill) newGroupRequest()   {}
func (BlankGroup) newGroupRequest()  {}
func (DefenseSlot) newGroupRequest() {}
