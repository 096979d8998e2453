// Package source defines the content providers that produce slide outlines.
package source

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_provider.go -package=mocks github.com/dgallion1/deckgest/internal/source Provider

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Provider turns a topic into heading/bullet text.
type Provider interface {
	Fetch(ctx context.Context, topic string) (Result, error)
}

// Hints are per-request settings a provider may use.
type Hints struct {
	// Slides is the number of slides the deck will hold.
	Slides int
	// Reference is source material to ground the output in.
	Reference string
}

// Hinted is implemented by providers that accept Hints.
type Hinted interface {
	Provider
	WithHints(h Hints) Provider
}

// Kind tags the variant held by a Result.
type Kind string

const (
	Found     Kind = "found"
	NotFound  Kind = "not_found"
	Ambiguous Kind = "ambiguous"
)

// Result is what a provider returns for a topic. Only the fields of its Kind
// are set: Title and Text for Found, Candidates for NotFound, Options for
// Ambiguous.
type Result struct {
	Kind       Kind     `json:"kind"`
	Title      string   `json:"title,omitempty"`
	Text       string   `json:"-"`
	Candidates []string `json:"candidates,omitempty"`
	Options    []string `json:"options,omitempty"`
}

// FoundResult wraps text found for title.
func FoundResult(title, text string) Result {
	return Result{Kind: Found, Title: title, Text: text}
}

// NotFoundResult reports a miss with search suggestions.
func NotFoundResult(candidates []string) Result {
	return Result{Kind: NotFound, Candidates: candidates}
}

// AmbiguousResult reports a topic that names several pages.
func AmbiguousResult(options []string) Result {
	return Result{Kind: Ambiguous, Options: options}
}

var (
	// ErrMissingCredentials means a provider has no API key configured.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrNotFound means no page matched the topic.
	ErrNotFound = errors.New("topic not found")
	// ErrAmbiguous means the topic matched a disambiguation page.
	ErrAmbiguous = errors.New("topic is ambiguous")
	// ErrUpstream means the provider answered with something unusable.
	ErrUpstream = errors.New("upstream provider error")
	// ErrUnknownProvider means no provider is registered under a name.
	ErrUnknownProvider = errors.New("unknown content source")
)

// LookupError carries the alternatives behind ErrNotFound and ErrAmbiguous.
type LookupError struct {
	Topic        string
	Kind         Kind
	Alternatives []string
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("%s: %q", e.Unwrap(), e.Topic)
	if len(e.Alternatives) > 0 {
		msg += " (try: " + strings.Join(e.Alternatives, ", ") + ")"
	}
	return msg
}

func (e *LookupError) Unwrap() error {
	if e.Kind == Ambiguous {
		return ErrAmbiguous
	}
	return ErrNotFound
}

// Err returns nil for Found and a *LookupError otherwise.
func (r Result) Err(topic string) error {
	switch r.Kind {
	case Found:
		return nil
	case Ambiguous:
		return &LookupError{Topic: topic, Kind: Ambiguous, Alternatives: r.Options}
	default:
		return &LookupError{Topic: topic, Kind: NotFound, Alternatives: r.Candidates}
	}
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, Truncate(e.Message, 200))
}

// Truncate cuts s to n bytes and marks the cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Registry maps source names ("openai", "claude", "wiki") to providers.
type Registry map[string]Provider

// Get returns the named provider or ErrUnknownProvider.
func (r Registry) Get(name string) (Provider, error) {
	p, ok := r[name]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists registered sources in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name, p := range r {
		if p != nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, topic string) (Result, error)

func (f ProviderFunc) Fetch(ctx context.Context, topic string) (Result, error) {
	return f(ctx, topic)
}
