package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/reassess/internal/llm/prompts"
	"github.com/pavelanni/reassess/internal/model"
)

// Generator is the boundary to a generative model: prompt text plus at most
// one inline file in, raw text out.
type Generator interface {
	Generate(ctx context.Context, prompt string, file *model.FilePayload) (string, error)
	Model() string
}

// Client builds prompts, calls the Generator once per request and parses
// the answer into domain types. It never retries or caches.
type Client struct {
	gen      Generator
	lang     prompts.Language
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithObserver sets the observer notified after every call.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a Client answering in lang. It parses the prompt templates.
func New(gen Generator, lang prompts.Language, opts ...Option) (*Client, error) {
	if err := prompts.Load(); err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	c := &Client{gen: gen, lang: lang, observer: NoopObserver{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Language returns the output language the prompts ask for.
func (c *Client) Language() prompts.Language { return c.lang }

// AnalyzeSkills classifies the assignment's current skills and suggests new ones.
func (c *Client) AnalyzeSkills(ctx context.Context, in model.InputPayload) (*model.SkillAnalysis, error) {
	file := in.File()
	prompt, err := prompts.BuildAnalyze(c.lang, in.AssignmentText(), file != nil)
	if err != nil {
		return nil, err
	}
	analysis, err := call[model.SkillAnalysis](ctx, c, prompts.KindAnalyze, prompt, file, validateAnalysis)
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// GenerateStrategies groups the selected skills into assessment methods.
func (c *Client) GenerateStrategies(ctx context.Context, skills []model.Skill, numStudents int) ([]model.AssessmentMethod, error) {
	prompt, err := prompts.BuildStrategies(c.lang, skills, numStudents)
	if err != nil {
		return nil, err
	}
	return call[[]model.AssessmentMethod](ctx, c, prompts.KindStrategies, prompt, nil, validateStrategies)
}

// Rephrase rewrites the assignment into student and lecturer sections.
func (c *Client) Rephrase(ctx context.Context, text string, skills []model.Skill, strategies []model.AssessmentMethod, numStudents int) (*model.Rephrasing, error) {
	prompt, err := prompts.BuildRephrase(c.lang, text, skills, strategies, numStudents)
	if err != nil {
		return nil, err
	}
	r, err := call[model.Rephrasing](ctx, c, prompts.KindRephrase, prompt, nil, validateRephrasing)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GenerateRubric builds a rubric from the student-facing sections.
func (c *Client) GenerateRubric(ctx context.Context, sections []model.TaskSection) ([]model.RubricRow, error) {
	prompt, err := prompts.BuildRubric(c.lang, sections)
	if err != nil {
		return nil, err
	}
	return call[[]model.RubricRow](ctx, c, prompts.KindRubric, prompt, nil, validateRubric)
}

// AskFollowUp answers a free-text question given the full transcript.
// The answer is returned as-is; an empty reply is not an error.
func (c *Client) AskFollowUp(ctx context.Context, text string, sections []model.TaskSection, strategies []model.AssessmentMethod, history []model.ChatMessage, question string) (string, error) {
	prompt, err := prompts.BuildFollowUp(c.lang, text, sections, strategies, history, question)
	if err != nil {
		return "", err
	}
	start := time.Now()
	answer, err := c.generate(ctx, prompts.KindFollowUp, prompt, nil)
	c.observe(prompts.KindFollowUp, start, err)
	return answer, err
}

func (c *Client) generate(ctx context.Context, kind prompts.Kind, prompt string, file *model.FilePayload) (string, error) {
	raw, err := c.gen.Generate(ctx, prompt, file)
	if err != nil {
		return "", classify(err)
	}
	slog.Debug("llm response", "kind", kind, "raw", raw)
	return raw, nil
}

func (c *Client) observe(kind prompts.Kind, start time.Time, err error) {
	c.observer.OnCallComplete(CallEvent{Kind: kind, Model: c.gen.Model(), Latency: time.Since(start), Err: err})
}

func call[T any](ctx context.Context, c *Client, kind prompts.Kind, prompt string, file *model.FilePayload, validate validator[T]) (T, error) {
	start := time.Now()
	raw, err := c.generate(ctx, kind, prompt, file)
	if err != nil {
		c.observe(kind, start, err)
		var zero T
		return zero, err
	}
	v, err := decodeJSON(raw, validate)
	c.observe(kind, start, err)
	return v, err
}
