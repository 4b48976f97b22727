// Package views renders the HTML pages. Every page is a templ.Component
// inside one shared layout. Login and home are written as components
// directly; the larger pages are embedded html/template sets.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/reassess/internal/i18n"
	"github.com/pavelanni/reassess/internal/model"
	"github.com/pavelanni/reassess/internal/wizard"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

var funcs = template.FuncMap{
	"t":    appI18n.T,
	"td":   appI18n.Td,
	"tp":   appI18n.Tp,
	"lang": appI18n.Lang,
	"dir": func(ctx context.Context) string {
		return appI18n.Dir(appI18n.Lang(ctx))
	},
	"path": func(ctx context.Context, p string) string {
		return model.BasePathFromContext(ctx) + p
	},
	"csrf": model.CSRFTokenFromContext,
	"user": model.UserFromContext,
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
	"bloom": func(ctx context.Context, l model.BloomLevel) string {
		return appI18n.T(ctx, "Bloom"+string(l))
	},
	"methods": wizard.MethodOptions,
	"lines": func(s string) []string {
		return strings.Split(strings.TrimSpace(s), "\n")
	},
	"levels":  func() []model.BloomLevel { return model.BloomLevels },
	"steps":   func() []wizard.Step { return []wizard.Step{wizard.StepInput, wizard.StepSkills, wizard.StepStrategies, wizard.StepResult} },
	"fields":  func() []model.RubricField { return rubricFields },
	"cell":    rubricCell,
	"isAdmin": func(u *model.User) bool { return u != nil && u.Role == model.UserRoleAdmin },
	"dict":    dict,
	"skillRow": func(ctx context.Context, sk model.Skill, selected bool) skillRow {
		return skillRow{Ctx: ctx, Skill: sk, Selected: selected}
	},
	"date": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
}

type skillRow struct {
	Ctx      context.Context
	Skill    model.Skill
	Selected bool
}

func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	return m
}

var rubricFields = []model.RubricField{
	model.RubricCriterion, model.RubricExcellent, model.RubricGood, model.RubricNeedsImprovement,
}

func rubricCell(r model.RubricRow, f model.RubricField) string {
	switch f {
	case model.RubricCriterion:
		return r.Criterion
	case model.RubricExcellent:
		return r.Excellent
	case model.RubricGood:
		return r.Good
	default:
		return r.NeedsImprovement
	}
}

var pages = mustParsePages()

// mustParsePages parses the layout once per page so every page can define
// its own "title" and "content" blocks.
func mustParsePages() map[string]*template.Template {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}
	out := make(map[string]*template.Template)
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		out[name] = template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templateFS, layoutFile, f))
	}
	return out
}

// page is what every template receives.
type page struct {
	Ctx  context.Context
	Data any
}

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages[name].ExecuteTemplate(w, "layout", page{Ctx: ctx, Data: data})
	})
}

// WizardData feeds the step views.
type WizardData struct {
	State  wizard.State
	Lang   string // wizard output language, selects method catalogues
	Notice *wizard.Notice
	Flash  *wizard.Notice
}

// Balance is shorthand for templates.
func (d WizardData) Balance() wizard.Balance { return d.State.BloomBalance() }

// Selected reports whether a skill with name is part of the selection.
func (d WizardData) Selected(name string) bool {
	for _, s := range d.State.SelectedSkills {
		if s.Name == name {
			return true
		}
	}
	return false
}

// WizardPage renders the current wizard step.
func WizardPage(d WizardData) templ.Component {
	return render("wizard", d)
}

// ArchiveData feeds the archive list.
type ArchiveData struct {
	Redesigns []model.Redesign
}

// ArchivePage lists archived redesigns.
func ArchivePage(d ArchiveData) templ.Component {
	return render("archive", d)
}

// RedesignPage shows one archived redesign.
func RedesignPage(rd model.Redesign) templ.Component {
	return render("redesign", rd)
}

// AdminUsersPage renders the account list and create form.
func AdminUsersPage(users []model.User, msg string) templ.Component {
	return render("admin_users", struct {
		Users   []model.User
		Message string
	}{users, msg})
}

// CallsData feeds the model usage page.
type CallsData struct {
	Stats []model.AICallStats
	Calls []model.AICall
}

// AdminCallsPage renders model call statistics and the recent call log.
func AdminCallsPage(d CallsData) templ.Component {
	return render("admin_calls", d)
}
