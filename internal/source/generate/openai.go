package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dgallion1/deckgest/internal/source"
)

// DefaultOpenAIBaseURL is the GitHub Models inference endpoint.
const DefaultOpenAIBaseURL = "https://models.github.ai/inference"

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "openai/gpt-4.1"

type chatCompletionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	model string
	chat  chatCompletionClient
}

// NewOpenAI builds a client. An empty apiKey yields a backend whose calls
// fail with source.ErrMissingCredentials.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	o := &OpenAI{model: model}
	if apiKey == "" {
		return o
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	o.chat = &client.Chat.Completions
	return o
}

func (o *OpenAI) Name() string { return "openai" }

// Model returns the model requests are sent to.
func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	if o.chat == nil {
		return "", fmt.Errorf("%w: set OPENAI_API_KEY or GITHUB_TOKEN", source.ErrMissingCredentials)
	}

	resp, err := o.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(Temperature),
		TopP:        openai.Float(TopP),
		MaxTokens:   openai.Int(MaxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", classifyStatus(apiErr.StatusCode)
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", source.ErrUpstream)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
