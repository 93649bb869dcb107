package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIGenerator answers through the OpenAI chat completions API. Sampling
// temperature is kept near zero so citations stay consistent between runs.
type OpenAIGenerator struct {
	client openai.Client
	model  openai.ChatModel
}

type OpenAIGeneratorConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewOpenAIGenerator(cfg OpenAIGeneratorConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigError{Field: "llm.api_key", Reason: "must not be empty"}
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  openai.ChatModel(cfg.Model),
	}, nil
}

func (g *OpenAIGenerator) Name() string { return "openai:" + string(g.model) }

func (g *OpenAIGenerator) Generate(ctx context.Context, query string, contexts []Chunk) (string, error) {
	if len(contexts) == 0 {
		return NoInfoAnswer, nil
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       g.model,
		Temperature: openai.Float(0.1),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(buildPrompt(query, contexts)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
