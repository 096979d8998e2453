package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dgallion1/deckgest/internal/config"
	"github.com/dgallion1/deckgest/internal/markup"
	"github.com/dgallion1/deckgest/internal/render"
	"github.com/dgallion1/deckgest/internal/slides"
	"github.com/dgallion1/deckgest/internal/source"
	"github.com/dgallion1/deckgest/internal/source/document"
)

// SourceDocument names the uploaded-document source.
const SourceDocument = "document"

// ErrInvalidRequest wraps request problems the caller can fix: unknown
// profiles and unusable budgets.
var ErrInvalidRequest = errors.New("invalid request")

// Request describes one deck to build.
type Request struct {
	Topic   string        `json:"topic"`
	Source  string        `json:"source"`
	Profile string        `json:"profile,omitempty"`
	Format  string        `json:"format,omitempty"`
	Budget  slides.Budget `json:"budget"`

	// KeepMarkup leaves inline markdown in titles and points.
	KeepMarkup bool `json:"keep_markup,omitempty"`

	// Filename and Data carry an uploaded document. With Source "document"
	// (or empty) the document itself becomes the deck; with a generator
	// source it is passed along as reference material.
	Filename string `json:"-"`
	Data     []byte `json:"-"`

	// OutputDir overrides the Builder's directory for this request.
	OutputDir string `json:"-"`
}

// Outcome is everything Run produced, including partial results on error.
type Outcome struct {
	Result source.Result
	Deck   slides.Deck
	File   string
}

// Builder runs requests end to end: fetch, parse, fit, render.
type Builder struct {
	Sources         source.Registry
	Profiles        config.Profiles
	OutputDir       string
	ReferenceTokens int
	Log             *slog.Logger
	// Wait overrides the retry backoff.
	Wait func(attempt int) time.Duration
}

// Run builds req synchronously. progress, if non-nil, sees each phase as
// it starts. Lookups that end in NotFound or Ambiguous return an error
// wrapping source.ErrNotFound or source.ErrAmbiguous along with the result.
func (b *Builder) Run(ctx context.Context, req Request, progress func(JobStatus)) (Outcome, error) {
	log := b.logger().With("topic", req.Topic, "source", req.Source)
	step := func(s JobStatus) {
		if progress != nil {
			progress(s)
		}
	}

	profile, budget, err := b.ResolveBudget(req.Profile, req.Budget)
	if err != nil {
		return Outcome{}, err
	}

	step(StatusFetching)
	res, err := b.fetch(ctx, req, profile, budget)
	out := Outcome{Result: res}
	if err != nil {
		return out, err
	}
	if err := res.Err(req.Topic); err != nil {
		log.Info("lookup did not resolve", "kind", res.Kind)
		return out, err
	}

	topic := req.Topic
	if topic == "" {
		topic = res.Title
	}

	step(StatusParsing)
	drafts := parseDrafts(res.Text, budget, req.KeepMarkup)

	step(StatusFitting)
	out.Deck = slides.Assemble(topic, drafts, budget)
	if out.Deck.Empty() {
		return out, slides.ErrNoSlides
	}
	log.Info("fitted deck", "slides", len(out.Deck.Slides), "chars", deckChars(out.Deck))

	step(StatusRendering)
	out.File, err = b.render(req, out.Deck)
	if err != nil {
		return out, err
	}
	log.Info("rendered deck", "file", out.File)
	return out, nil
}

// ResolveBudget looks up a profile and overlays the positive fields of
// override on its budget. The result is validated.
func (b *Builder) ResolveBudget(profile string, override slides.Budget) (config.Profile, slides.Budget, error) {
	p, err := b.Profiles.Get(profile)
	if err != nil {
		return config.Profile{}, slides.Budget{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	budget := p.Budget.Merge(override)
	if err := budget.Validate(); err != nil {
		return config.Profile{}, slides.Budget{}, fmt.Errorf("%w: budget: %w", ErrInvalidRequest, err)
	}
	return p, budget, nil
}

// BuildDeck parses and fits text without fetching or rendering.
func BuildDeck(topic, text string, budget slides.Budget, keepMarkup bool) slides.Deck {
	return slides.Assemble(topic, parseDrafts(text, budget, keepMarkup), budget)
}

func parseDrafts(text string, budget slides.Budget, keepMarkup bool) []slides.Draft {
	drafts := slides.Parse(text, budget)
	if keepMarkup {
		return drafts
	}
	return plainDrafts(drafts)
}

func (b *Builder) fetch(ctx context.Context, req Request, profile config.Profile, budget slides.Budget) (source.Result, error) {
	if req.Data != nil && (req.Source == "" || req.Source == SourceDocument) {
		return document.FromBytes(req.Filename, req.Data, profile.SentencesPerSection)
	}
	if req.Source == SourceDocument {
		return source.Result{}, fmt.Errorf("%w: document source needs an upload", document.ErrUnsupported)
	}

	p, err := b.Sources.Get(req.Source)
	if err != nil {
		return source.Result{}, err
	}
	if h, ok := p.(source.Hinted); ok {
		hints := source.Hints{Slides: budget.MaxSlides}
		if req.Data != nil {
			ref, err := document.Reference(req.Filename, req.Data, b.ReferenceTokens)
			if err != nil {
				return source.Result{}, err
			}
			hints.Reference = ref
		}
		p = h.WithHints(hints)
	}

	retrying := &source.Retrying{Provider: p, Log: b.logger(), Wait: b.Wait}
	return retrying.Fetch(ctx, req.Topic)
}

func (b *Builder) render(req Request, deck slides.Deck) (string, error) {
	r, err := render.New(req.Format)
	if err != nil {
		return "", err
	}
	dir := req.OutputDir
	if dir == "" {
		dir = b.OutputDir
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	render.Deck(r, deck)
	return r.Save(filepath.Join(dir, render.Filename(deck.Topic, r.Ext())))
}

func (b *Builder) logger() *slog.Logger {
	if b.Log == nil {
		return slog.Default()
	}
	return b.Log
}

// plainDrafts strips inline markdown so budgets count visible characters.
// Points left empty by stripping are dropped.
func plainDrafts(drafts []slides.Draft) []slides.Draft {
	out := make([]slides.Draft, len(drafts))
	for i, d := range drafts {
		title := markup.Plain(d.Title)
		if title == "" {
			title = d.Title
		}
		points := markup.PlainAll(d.Points)
		points = slices.DeleteFunc(points, func(p string) bool { return p == "" })
		out[i] = slides.Draft{Title: title, Points: points}
	}
	return out
}

func deckChars(d slides.Deck) int {
	n := 0
	for _, s := range d.Slides {
		n += slides.TotalChars(s.Points)
	}
	return n
}

// StatusFor maps a Run error to the job status it ends in.
func StatusFor(err error) JobStatus {
	switch {
	case err == nil:
		return StatusCompleted
	case errors.Is(err, source.ErrNotFound):
		return StatusNotFound
	case errors.Is(err, source.ErrAmbiguous):
		return StatusAmbiguous
	default:
		return StatusFailed
	}
}
