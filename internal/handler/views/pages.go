package views

import (
	"bytes"
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/reassess/internal/i18n"
	"github.com/pavelanni/reassess/internal/model"
)

// htmlWriter writes markup and escaped text, keeping the first error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// href writes an attribute-safe URL under the deployment's base path.
func (h *htmlWriter) href(ctx context.Context, p string) {
	h.text(string(templ.URL(model.BasePathFromContext(ctx) + p)))
}

func (h *htmlWriter) csrf(ctx context.Context) {
	h.raw(`<input type="hidden" name="csrf_token" value="`)
	h.text(model.CSRFTokenFromContext(ctx))
	h.raw(`">`)
}

type shell struct {
	Title string
	Body  template.HTML
}

// withLayout renders body inside the shared page layout.
func withLayout(titleID string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := body.Render(ctx, &buf); err != nil {
			return err
		}
		return pages["component"].ExecuteTemplate(w, "layout", page{
			Ctx:  ctx,
			Data: shell{Title: appI18n.T(ctx, titleID), Body: template.HTML(buf.String())},
		})
	})
}

// LoginPage renders the sign-in form with an optional error.
func LoginPage(errMsg string) templ.Component {
	return withLayout("Login", loginForm(errMsg))
}

func loginForm(errMsg string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="card"><h1>`)
		h.text(appI18n.T(ctx, "Login"))
		h.raw(`</h1>`)
		if errMsg != "" {
			h.raw(`<div class="notice error">`)
			h.text(errMsg)
			h.raw(`</div>`)
		}
		h.raw(`<form method="post" action="`)
		h.href(ctx, "/login")
		h.raw(`">`)
		h.csrf(ctx)
		h.raw(`<p><label>`)
		h.text(appI18n.T(ctx, "Username"))
		h.raw(`<br><input name="username" autocomplete="username" required></label></p><p><label>`)
		h.text(appI18n.T(ctx, "Password"))
		h.raw(`<br><input name="password" type="password" autocomplete="current-password" required></label></p><button>`)
		h.text(appI18n.T(ctx, "Login"))
		h.raw(`</button></form></div>`)
		return h.err
	})
}

// HomeData feeds the landing page.
type HomeData struct {
	InProgress bool
	Archived   int
}

// HomePage renders the landing page.
func HomePage(d HomeData) templ.Component {
	return withLayout("HomeTitle", home(d))
}

func home(d HomeData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="card"><h1>`)
		h.text(appI18n.T(ctx, "HomeTitle"))
		h.raw(`</h1><p>`)
		h.text(appI18n.T(ctx, "HomeIntro"))
		h.raw(`</p><ol>`)
		for _, id := range []string{"Step1", "Step2", "Step3", "Step4"} {
			h.raw(`<li>`)
			h.text(appI18n.T(ctx, id))
			h.raw(`</li>`)
		}
		h.raw(`</ol>`)
		if d.InProgress {
			h.raw(`<a href="`)
			h.href(ctx, "/wizard")
			h.raw(`">`)
			h.text(appI18n.T(ctx, "ContinueRedesign"))
			h.raw(`</a>`)
		} else {
			h.raw(`<form method="post" action="`)
			h.href(ctx, "/wizard/start")
			h.raw(`">`)
			h.csrf(ctx)
			h.raw(`<button>`)
			h.text(appI18n.T(ctx, "StartRedesign"))
			h.raw(`</button></form>`)
		}
		h.raw(`</div>`)
		if d.Archived > 0 {
			h.raw(`<p class="muted"><a href="`)
			h.href(ctx, "/archive")
			h.raw(`">`)
			h.text(appI18n.Tp(ctx, "ArchivedCount", d.Archived))
			h.raw(`</a></p>`)
		}
		return h.err
	})
}
