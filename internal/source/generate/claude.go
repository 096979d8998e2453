package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dgallion1/deckgest/internal/source"
)

// DefaultClaudeModel is used when no model is configured.
const DefaultClaudeModel = "claude-sonnet-4-20250514"

type messageClient interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Claude calls the Anthropic Messages API.
type Claude struct {
	model    string
	messages messageClient
}

// NewClaude builds a client. An empty apiKey yields a backend whose calls
// fail with source.ErrMissingCredentials.
func NewClaude(apiKey, model string) *Claude {
	if model == "" {
		model = DefaultClaudeModel
	}
	c := &Claude{model: model}
	if apiKey == "" {
		return c
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	c.messages = &client.Messages
	return c
}

func (c *Claude) Name() string { return "claude" }

func (c *Claude) Model() string { return c.model }

func (c *Claude) Complete(ctx context.Context, system, user string) (string, error) {
	if c.messages == nil {
		return "", fmt.Errorf("%w: set ANTHROPIC_API_KEY", source.ErrMissingCredentials)
	}

	resp, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   MaxTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(user))},
		Temperature: anthropic.Float(Temperature),
		TopP:        anthropic.Float(TopP),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", classifyStatus(apiErr.StatusCode)
		}
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type != "text" || strings.TrimSpace(block.Text) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(block.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty response from claude", source.ErrUpstream)
	}
	return strings.TrimSpace(sb.String()), nil
}
