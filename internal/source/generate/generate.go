// Package generate produces slide outlines with a generative language model.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/deckgest/internal/source"
)

// Sampling parameters shared by every backend.
const (
	Temperature = 0.7
	TopP        = 0.9
	MaxTokens   = 2000
)

// Backend completes one system+user exchange.
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

// Generator is a source.Provider backed by a language model. It always
// yields a Found result.
type Generator struct {
	backend Backend
	stats   *Stats
	log     *slog.Logger
	opts    PromptOptions
}

var _ source.Hinted = (*Generator)(nil)

// New wraps backend. stats may be nil.
func New(backend Backend, stats *Stats, log *slog.Logger, opts PromptOptions) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{backend: backend, stats: stats, log: log, opts: opts}
}

// WithHints returns a copy that asks for h.Slides slides (when positive)
// and includes h.Reference in its prompts.
func (g *Generator) WithHints(h source.Hints) source.Provider {
	c := *g
	if h.Slides > 0 {
		c.opts.Slides = h.Slides
	}
	c.opts.Reference = h.Reference
	return &c
}

func (g *Generator) Fetch(ctx context.Context, topic string) (source.Result, error) {
	start := time.Now()
	text, err := g.backend.Complete(ctx, SystemPrompt, BuildPrompt(topic, g.opts))
	elapsed := time.Since(start)
	if g.stats != nil {
		if err != nil {
			g.stats.RecordFailure(elapsed.Milliseconds())
		} else {
			g.stats.Record(elapsed.Milliseconds())
		}
	}
	if err != nil {
		return source.Result{}, fmt.Errorf("%s generate: %w", g.backend.Name(), err)
	}

	text = stripCodeBlock(text)
	if text == "" {
		return source.Result{}, fmt.Errorf("%s generate: %w: empty response", g.backend.Name(), source.ErrUpstream)
	}
	if text, err = validateReply(text); err != nil {
		return source.Result{}, fmt.Errorf("%s generate: %w", g.backend.Name(), err)
	}
	g.log.Info("generated outline", "backend", g.backend.Name(), "topic", topic,
		"chars", len(text), "duration_ms", elapsed.Milliseconds())
	return source.FoundResult(topic, text), nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:[a-zA-Z]+)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// classifyStatus maps an API status code to a retryable or upstream error.
func classifyStatus(status int) error {
	if status == http.StatusTooManyRequests || status >= 500 {
		return &source.RetryableError{StatusCode: status, Message: http.StatusText(status)}
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: status %d", source.ErrMissingCredentials, status)
	}
	return fmt.Errorf("%w: status %d", source.ErrUpstream, status)
}
