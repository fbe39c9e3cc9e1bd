package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/serena/internal/common"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openAIClient implements Client on top of the OpenAI chat completions API.
type openAIClient struct {
	client openai.Client
	model  string
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", common.ErrMissingConfig)
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retries are handled by resilientClient.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &openAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Complete sends one chat completion with a system and a user message.
func (c *openAIClient) Complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemInstruction),
			openai.UserMessage(strings.TrimSpace(req.UserContent)),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxOutputTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", common.ErrEmptyResponse)
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// classifyOpenAIError marks client-side failures as permanent so they are not retried.
func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return common.Permanent(fmt.Errorf("OpenAI API error (status %d): %w", apiErr.StatusCode, err))
		}
	}
	return fmt.Errorf("request failed: %w", err)
}
