package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/reassess/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	assignmentTagRegex      = regexp.MustCompile(`(?i)</?\s*assignment\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

const maxTextRunes = 10000

// Language is the language the model is asked to answer in.
type Language string

const (
	// LanguageHebrew is the default output language.
	LanguageHebrew Language = "he"
	// LanguageEnglish asks for English output.
	LanguageEnglish Language = "en"
)

var languageNames = map[Language]string{
	LanguageHebrew:  "Hebrew",
	LanguageEnglish: "English",
}

// IsValidLanguage checks if a language code has prompt support.
func IsValidLanguage(l string) bool {
	_, ok := languageNames[Language(l)]
	return ok
}

// Kind names one of the request kinds sent to the model.
type Kind string

const (
	KindAnalyze    Kind = "analyze"
	KindStrategies Kind = "strategies"
	KindRephrase   Kind = "rephrase"
	KindFollowUp   Kind = "followup"
	KindRubric     Kind = "rubric"
)

var kinds = []Kind{KindAnalyze, KindStrategies, KindRephrase, KindFollowUp, KindRubric}

// LevelLabel is how one taxonomy level is named in a prompt.
type LevelLabel struct {
	Level model.BloomLevel
	Label string
	Gloss string
}

var levelLabels = map[Language][]LevelLabel{
	LanguageHebrew: {
		{model.BloomRemember, "זכירה", "Remember"},
		{model.BloomUnderstand, "הבנה", "Understand"},
		{model.BloomApply, "יישום", "Apply"},
		{model.BloomAnalyze, "אנליזה", "Analyze"},
		{model.BloomEvaluate, "הערכה", "Evaluate"},
		{model.BloomCreate, "יצירה", "Create"},
	},
	LanguageEnglish: {
		{model.BloomRemember, "Remember", "recall facts"},
		{model.BloomUnderstand, "Understand", "explain ideas"},
		{model.BloomApply, "Apply", "use in new situations"},
		{model.BloomAnalyze, "Analyze", "draw connections"},
		{model.BloomEvaluate, "Evaluate", "justify a decision"},
		{model.BloomCreate, "Create", "produce original work"},
	},
}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Kind]*template.Template
)

var funcs = template.FuncMap{
	"inc":        func(i int) int { return i + 1 },
	"join":       strings.Join,
	"levelLabel": levelLabel,
}

// Load parses the embedded prompt templates.
// It uses sync.Once to ensure templates are parsed only once.
func Load() error {
	loadOnce.Do(func() {
		templates = make(map[Kind]*template.Template)
		for _, k := range kinds {
			file := "templates/" + string(k) + ".tmpl"
			content, err := templateFS.ReadFile(file)
			if err != nil {
				loadErr = errors.New("failed to read prompt file " + file + ": " + err.Error())
				return
			}
			tmpl, err := template.New(string(k)).Funcs(funcs).Parse(string(content))
			if err != nil {
				loadErr = errors.New("failed to parse prompt template " + file + ": " + err.Error())
				return
			}
			templates[k] = tmpl
		}
	})
	return loadErr
}

// Common carries the language settings shared by every prompt.
type Common struct {
	LanguageName string
	Levels       []LevelLabel
}

func newCommon(lang Language) Common {
	if _, ok := languageNames[lang]; !ok {
		lang = LanguageHebrew
	}
	return Common{LanguageName: languageNames[lang], Levels: levelLabels[lang]}
}

// AnalyzeData holds template data for the skill classification prompt.
type AnalyzeData struct {
	Common
	AssignmentText string
	HasAttachment  bool
}

// StrategiesData holds template data for the grouping prompt.
type StrategiesData struct {
	Common
	Skills      []model.Skill
	NumStudents int
}

// RephraseData holds template data for the rephrase prompt.
type RephraseData struct {
	Common
	AssignmentText string
	Skills         []model.Skill
	Strategies     []model.AssessmentMethod
	NumStudents    int
}

// FollowUpData holds template data for a follow-up question.
type FollowUpData struct {
	Common
	AssignmentText string
	Sections       []model.TaskSection
	Strategies     []model.AssessmentMethod
	History        []model.ChatMessage
	Question       string
}

// RubricData holds template data for rubric generation.
type RubricData struct {
	Common
	Sections []model.TaskSection
}

// BuildAnalyze builds the skill classification prompt.
func BuildAnalyze(lang Language, text string, hasAttachment bool) (string, error) {
	return execute(KindAnalyze, AnalyzeData{
		Common:         newCommon(lang),
		AssignmentText: sanitizeText(text, hasAttachment),
		HasAttachment:  hasAttachment,
	})
}

// BuildStrategies builds the prompt that groups skills into assessment methods.
func BuildStrategies(lang Language, skills []model.Skill, numStudents int) (string, error) {
	return execute(KindStrategies, StrategiesData{
		Common:      newCommon(lang),
		Skills:      skills,
		NumStudents: numStudents,
	})
}

// BuildRephrase builds the prompt that rewrites the assignment into sections.
func BuildRephrase(lang Language, text string, skills []model.Skill, strategies []model.AssessmentMethod, numStudents int) (string, error) {
	return execute(KindRephrase, RephraseData{
		Common:         newCommon(lang),
		AssignmentText: sanitizeText(text, false),
		Skills:         skills,
		Strategies:     strategies,
		NumStudents:    numStudents,
	})
}

// BuildFollowUp builds a follow-up prompt carrying the whole transcript.
func BuildFollowUp(lang Language, text string, sections []model.TaskSection, strategies []model.AssessmentMethod, history []model.ChatMessage, question string) (string, error) {
	return execute(KindFollowUp, FollowUpData{
		Common:         newCommon(lang),
		AssignmentText: sanitizeText(text, false),
		Sections:       sections,
		Strategies:     strategies,
		History:        history,
		Question:       strings.TrimSpace(question),
	})
}

// BuildRubric builds the rubric prompt from the student-facing sections only.
func BuildRubric(lang Language, sections []model.TaskSection) (string, error) {
	return execute(KindRubric, RubricData{
		Common:   newCommon(lang),
		Sections: StudentSections(sections),
	})
}

// StudentSections keeps the sections addressed to students.
func StudentSections(sections []model.TaskSection) []model.TaskSection {
	var out []model.TaskSection
	for _, s := range sections {
		if s.Audience == model.AudienceStudent {
			out = append(out, s)
		}
	}
	return out
}

func execute(kind Kind, data any) (string, error) {
	if templates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := templates[kind]
	if !ok {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("unknown prompt kind: " + string(kind))
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func levelLabel(levels []LevelLabel, l model.BloomLevel) string {
	for _, ll := range levels {
		if ll.Level == l {
			return ll.Label
		}
	}
	return string(l)
}

func sanitizeText(text string, hasAttachment bool) string {
	text = assignmentTagRegex.ReplaceAllString(text, "")
	text = systemInstructionsRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, `"""`, `"`)
	text = strings.TrimSpace(text)

	if text == "" {
		if hasAttachment {
			return "[See attached document]"
		}
		return "[No text provided]"
	}

	if utf8.RuneCountInString(text) > maxTextRunes {
		runes := []rune(text)
		text = string(runes[:maxTextRunes]) + "\n\n[Text truncated due to length]"
	}

	return text
}
