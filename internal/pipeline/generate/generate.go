// Package generate adapts the OpenAI chat completions API to the
// pipeline's Generator interface.
package generate

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/voicebridge/voicebridge/internal/config"
	apperrors "github.com/voicebridge/voicebridge/internal/errors"
)

// Generator produces a conversational reply via chat completions.
type Generator struct {
	client       openai.Client
	model        string
	systemPrompt string
	temperature  float64
	maxTokens    int
}

// New creates a Generator from config.
func New(cfg config.GenerateConfig) *Generator {
	return &Generator{
		client:       openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
	}
}

// Generate returns the model's reply to text. An empty transcript yields
// an empty reply without calling the API.
func (g *Generator) Generate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(g.systemPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(g.temperature),
		MaxTokens:   openai.Int(int64(g.maxTokens)),
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Transient, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
