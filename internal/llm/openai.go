package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pavelanni/reassess/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator talks to any OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	api   *openai.Client
	model string
	keyed bool
}

// NewOpenAIGenerator creates an OpenAI-compatible backend.
// A custom baseURL allows local servers (Ollama, vLLM) that need no key.
func NewOpenAIGenerator(baseURL, apiKey, modelName string) *OpenAIGenerator {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIGenerator{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
		keyed: apiKey != "" || baseURL != "",
	}
}

func (o *OpenAIGenerator) Model() string { return o.model }

// Generate sends a single user message. Images travel inline as data URLs;
// other binary attachments are rejected.
func (o *OpenAIGenerator) Generate(ctx context.Context, prompt string, file *model.FilePayload) (string, error) {
	if !o.keyed {
		return "", fmt.Errorf("%w: set --api-key or --llm-url", ErrNotConfigured)
	}

	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if file == nil {
		msg.Content = prompt
	} else {
		if !strings.HasPrefix(file.MIMEType, "image/") {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedPayload, file.MIMEType)
		}
		dataURL := "data:" + file.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(file.Data)
		msg.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
		}
	}

	resp, err := o.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    []openai.ChatCompletionMessage{msg},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %w", ErrTransport, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", ErrTransport)
	}
	return resp.Choices[0].Message.Content, nil
}
