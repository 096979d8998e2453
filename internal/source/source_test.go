package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/deckgest/internal/outline"
)

func TestResultErr(t *testing.T) {
	if err := FoundResult("Go", "## A\n- b").Err("go"); err != nil {
		t.Fatalf("found: unexpected error %v", err)
	}

	err := NotFoundResult([]string{"Go (language)", "Go (game)"}).Err("goo")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var le *LookupError
	if !errors.As(err, &le) || len(le.Alternatives) != 2 {
		t.Fatalf("expected LookupError with 2 alternatives, got %#v", err)
	}
	if !strings.Contains(err.Error(), "Go (game)") {
		t.Errorf("error should list candidates: %q", err.Error())
	}

	err = AmbiguousResult([]string{"Mercury (planet)"}).Err("Mercury")
	if !errors.Is(err, ErrAmbiguous) || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected only ErrAmbiguous, got %v", err)
	}
}

func TestRegistryGet(t *testing.T) {
	r := Registry{"wiki": ProviderFunc(func(context.Context, string) (Result, error) {
		return FoundResult("x", ""), nil
	})}
	if _, err := r.Get("wiki"); err != nil {
		t.Fatalf("wiki: %v", err)
	}
	if _, err := r.Get("claude"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if names := r.Names(); len(names) != 1 || names[0] != "wiki" {
		t.Errorf("names = %v", names)
	}
}

func TestIsRetryable(t *testing.T) {
	wrapped := errors.Join(errors.New("call"), &RetryableError{StatusCode: 429, Message: "slow down"})
	if !IsRetryable(wrapped) {
		t.Error("wrapped RetryableError should be retryable")
	}
	if IsRetryable(ErrUpstream) {
		t.Error("ErrUpstream should not be retryable")
	}
}

func TestBackoffBounds(t *testing.T) {
	for attempt := range 8 {
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		d := Backoff(attempt)
		if d < base || d >= base+base/2 {
			t.Errorf("attempt %d: %v outside [%v, %v)", attempt, d, base, base+base/2)
		}
	}
}

func TestRetryingRetriesTransientErrors(t *testing.T) {
	calls := 0
	p := &Retrying{
		Provider: ProviderFunc(func(context.Context, string) (Result, error) {
			calls++
			if calls < 3 {
				return Result{}, &RetryableError{StatusCode: 503, Message: "busy"}
			}
			return FoundResult("Go", "## A\n- b"), nil
		}),
		Wait: func(int) time.Duration { return 0 },
	}
	res, err := p.Fetch(context.Background(), "Go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 || res.Kind != Found {
		t.Fatalf("calls=%d kind=%s", calls, res.Kind)
	}
}

func TestRetryingGivesUp(t *testing.T) {
	calls := 0
	p := &Retrying{
		Provider: ProviderFunc(func(context.Context, string) (Result, error) {
			calls++
			return Result{}, &RetryableError{StatusCode: 500}
		}),
		Wait: func(int) time.Duration { return 0 },
	}
	if _, err := p.Fetch(context.Background(), "Go"); !IsRetryable(err) {
		t.Fatalf("expected last retryable error, got %v", err)
	}
	if calls != MaxRetries {
		t.Errorf("calls = %d, want %d", calls, MaxRetries)
	}
}

func TestRetryingStopsOnPermanentError(t *testing.T) {
	calls := 0
	p := &Retrying{
		Provider: ProviderFunc(func(context.Context, string) (Result, error) {
			calls++
			return Result{}, ErrMissingCredentials
		}),
	}
	if _, err := p.Fetch(context.Background(), "Go"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Retry(ctx, nil, func(int) time.Duration { return time.Hour }, func(context.Context) (int, error) {
		return 0, &RetryableError{StatusCode: 502}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBlob(t *testing.T) {
	b := outline.NewBuilder()
	b.Paragraph("Go is a language. It was designed at Google.")
	b.Heading(2, "History")
	b.Paragraph("One. Two. Three. Four. Five. Six.")
	b.Heading(3, "Early years")
	b.Paragraph("Started in 2007.")
	b.Heading(2, "See also")
	b.Paragraph("Rust. Zig.")
	b.Heading(2, "Empty")
	o := b.Outline("Go")

	got := Blob(o, BlobOptions{SentencesPerSection: 5, LeadTitle: "Overview", Skip: []string{"see also"}})
	want := "## Overview\n- Go is a language.\n- It was designed at Google.\n\n" +
		"## History\n- One.\n- Two.\n- Three.\n- Four.\n- Five.\n\n" +
		"## History / Early years\n- Started in 2007.\n\n"
	if got != want {
		t.Fatalf("blob mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestBlobNamesUntitledSections(t *testing.T) {
	o := &outline.Outline{Title: "notes", Sections: []*outline.Section{
		{Text: "First paragraph."},
		{Text: "Second paragraph."},
	}}
	got := Blob(o, BlobOptions{})
	if !strings.Contains(got, "## notes (1)\n- First paragraph.") || !strings.Contains(got, "## notes (2)\n") {
		t.Fatalf("unexpected blob:\n%s", got)
	}
}
