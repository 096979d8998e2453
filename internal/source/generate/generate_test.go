package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/deckgest/internal/source"
)

type fakeChat struct {
	requests []openai.ChatCompletionNewParams
	resp     *openai.ChatCompletion
	err      error
}

func (f *fakeChat) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.requests = append(f.requests, body)
	return f.resp, f.err
}

func chatReply(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
	}
}

type fakeMessages struct {
	requests []anthropic.MessageNewParams
	resp     *anthropic.Message
	err      error
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...anthropicopt.RequestOption) (*anthropic.Message, error) {
	f.requests = append(f.requests, body)
	return f.resp, f.err
}

func TestOpenAIComplete(t *testing.T) {
	chat := &fakeChat{resp: chatReply("## Intro\n- Go is fast.")}
	o := &OpenAI{model: DefaultOpenAIModel, chat: chat}

	text, err := o.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "## Intro\n- Go is fast.", text)

	require.Len(t, chat.requests, 1)
	req := chat.requests[0]
	assert.Equal(t, shared.ChatModel("openai/gpt-4.1"), req.Model)
	require.Len(t, req.Messages, 2)
	require.NotNil(t, req.Messages[0].OfSystem)
	assert.Equal(t, "sys", req.Messages[0].OfSystem.Content.OfString.Value)
	require.NotNil(t, req.Messages[1].OfUser)
	assert.Equal(t, "user", req.Messages[1].OfUser.Content.OfString.Value)
	assert.Equal(t, 0.7, req.Temperature.Value)
	assert.Equal(t, 0.9, req.TopP.Value)
	assert.Equal(t, int64(2000), req.MaxTokens.Value)
}

func TestOpenAIMissingKey(t *testing.T) {
	_, err := NewOpenAI("", "", "").Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrMissingCredentials)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")
}

func TestOpenAIStatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
		target    error
	}{
		{429, true, nil},
		{503, true, nil},
		{401, false, source.ErrMissingCredentials},
		{400, false, source.ErrUpstream},
	}
	for _, tt := range tests {
		o := &OpenAI{model: "m", chat: &fakeChat{err: &openai.Error{StatusCode: tt.status}}}
		_, err := o.Complete(context.Background(), "s", "u")
		require.Error(t, err)
		assert.Equal(t, tt.retryable, source.IsRetryable(err), "status %d", tt.status)
		if tt.target != nil {
			assert.ErrorIs(t, err, tt.target, "status %d", tt.status)
		}
	}
}

func TestOpenAINoChoices(t *testing.T) {
	o := &OpenAI{model: "m", chat: &fakeChat{resp: &openai.ChatCompletion{}}}
	_, err := o.Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, source.ErrUpstream)
}

func TestClaudeComplete(t *testing.T) {
	msgs := &fakeMessages{resp: &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "text", Text: "## Intro"},
		{Type: "text", Text: "- Go is fast."},
	}}}
	c := &Claude{model: "claude-test", messages: msgs}

	text, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "## Intro\n- Go is fast.", text)

	require.Len(t, msgs.requests, 1)
	req := msgs.requests[0]
	assert.Equal(t, anthropic.Model("claude-test"), req.Model)
	assert.Equal(t, int64(2000), req.MaxTokens)
	require.Len(t, req.System, 1)
	assert.Equal(t, "sys", req.System[0].Text)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, 0.7, req.Temperature.Value)
}

func TestClaudeRetryableAndMissingKey(t *testing.T) {
	c := &Claude{model: "m", messages: &fakeMessages{err: &anthropic.Error{StatusCode: 529}}}
	_, err := c.Complete(context.Background(), "s", "u")
	assert.True(t, source.IsRetryable(err))

	_, err = NewClaude("", "").Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, source.ErrMissingCredentials)

	c = &Claude{model: "m", messages: &fakeMessages{resp: &anthropic.Message{}}}
	_, err = c.Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, source.ErrUpstream)
}

type stubBackend struct {
	reply  string
	err    error
	system string
	user   string
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Complete(_ context.Context, system, user string) (string, error) {
	s.system, s.user = system, user
	return s.reply, s.err
}

func TestGeneratorFetch(t *testing.T) {
	backend := &stubBackend{reply: "```markdown\n## Intro\n- Go is fast.\n```"}
	stats := NewStats(time.Hour)
	g := New(backend, stats, nil, PromptOptions{Slides: 7, PointsPerSlide: 5})

	res, err := g.Fetch(context.Background(), "Go")
	require.NoError(t, err)
	assert.Equal(t, source.Found, res.Kind)
	assert.Equal(t, "Go", res.Title)
	assert.Equal(t, "## Intro\n- Go is fast.", res.Text)
	assert.Equal(t, SystemPrompt, backend.system)
	assert.Contains(t, backend.user, `7-slide presentation about "Go"`)
	assert.Equal(t, 1, stats.Snapshot().Count)
}

func TestGeneratorErrors(t *testing.T) {
	stats := NewStats(time.Hour)
	g := New(&stubBackend{err: &source.RetryableError{StatusCode: 500}}, stats, nil, PromptOptions{})
	_, err := g.Fetch(context.Background(), "Go")
	assert.True(t, source.IsRetryable(err))
	assert.Equal(t, 1, stats.Snapshot().Errors)

	g = New(&stubBackend{reply: "  "}, nil, nil, PromptOptions{})
	_, err = g.Fetch(context.Background(), "Go")
	assert.True(t, errors.Is(err, source.ErrUpstream))

	g = New(&stubBackend{reply: "I cannot make slides about that."}, nil, nil, PromptOptions{})
	_, err = g.Fetch(context.Background(), "Go")
	assert.True(t, source.IsRetryable(err), "a reply without headings should be retried")
}

func TestGeneratorWithHints(t *testing.T) {
	backend := &stubBackend{reply: "## A\n- b"}
	base := New(backend, nil, nil, PromptOptions{})
	_, err := base.WithHints(source.Hints{Slides: 3, Reference: "Chapter one text."}).Fetch(context.Background(), "Go")
	require.NoError(t, err)
	assert.Contains(t, backend.user, "Chapter one text.")
	assert.Contains(t, backend.user, "3-slide")

	_, err = base.Fetch(context.Background(), "Go")
	require.NoError(t, err)
	assert.NotContains(t, backend.user, "Chapter one text.")
}

func TestStripCodeBlock(t *testing.T) {
	assert.Equal(t, "## A", stripCodeBlock("```\n## A\n```"))
	assert.Equal(t, "## A", stripCodeBlock("```md\n## A\n```"))
	assert.Equal(t, "## A\n- ```x```", stripCodeBlock("## A\n- ```x```"))
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Rust", PromptOptions{Slides: 4, PointsPerSlide: 2})
	assert.Contains(t, p, `4-slide presentation about "Rust"`)
	assert.Contains(t, p, "## [Section Title]\n- [Point]\n- [Point]\n\n")
	assert.Contains(t, p, "Write 2 points per slide.")
	assert.NotContains(t, p, "reference material")
}
