package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/pavelanni/reassess/internal/model"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiGenerator calls the Gemini API through the official genai client.
// The client is built on first use so the server starts without a key.
type GeminiGenerator struct {
	apiKey string
	model  string

	mu  sync.Mutex
	cli *genai.Client
}

// NewGeminiGenerator creates a Gemini backend. An empty model selects DefaultGeminiModel.
func NewGeminiGenerator(apiKey, modelName string) *GeminiGenerator {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &GeminiGenerator{apiKey: apiKey, model: modelName}
}

func (g *GeminiGenerator) Model() string { return g.model }

func (g *GeminiGenerator) client(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cli != nil {
		return g.cli, nil
	}
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY or --api-key", ErrNotConfigured)
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %w", ErrTransport, err)
	}
	g.cli = cli
	return cli, nil
}

// Generate sends the prompt, preceded by the file as an inline part when present.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, file *model.FilePayload) (string, error) {
	cli, err := g.client(ctx)
	if err != nil {
		return "", err
	}

	var parts []*genai.Part
	if file != nil {
		parts = append(parts, genai.NewPartFromBytes(file.Data, file.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	resp, err := cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("%w: gemini generate: %w", ErrTransport, err)
	}
	return resp.Text(), nil
}
