package pipeline

import (
	"log/slog"
	"time"

	"github.com/dgallion1/deckgest/internal/config"
	"github.com/dgallion1/deckgest/internal/source"
	"github.com/dgallion1/deckgest/internal/source/generate"
	"github.com/dgallion1/deckgest/internal/source/wiki"
)

// StatsWindow is how long generation latencies are kept for reporting.
const StatsWindow = 15 * time.Minute

// Backend describes one configured language-model source.
type Backend struct {
	Name  string
	Model string
	Stats *generate.Stats
}

// NewSources builds a provider for every source cfg enables, keyed by the
// names Config.Sources reports. Generation backends are returned alongside
// so callers can report their stats.
func NewSources(cfg config.Config, log *slog.Logger) (source.Registry, []Backend) {
	reg := source.Registry{}
	var backends []Backend

	points := 0
	if ai, err := cfg.Profiles.Get(config.DefaultProfile); err == nil {
		points = ai.SentencesPerSection
	}
	addGenerator := func(b generate.Backend, model string) {
		stats := generate.NewStats(StatsWindow)
		reg[b.Name()] = generate.New(b, stats, log.With("source", b.Name()), generate.PromptOptions{PointsPerSlide: points})
		backends = append(backends, Backend{Name: b.Name(), Model: model, Stats: stats})
	}

	if cfg.OpenAIAPIKey != "" {
		o := generate.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		addGenerator(o, o.Model())
	}
	if cfg.AnthropicAPIKey != "" {
		c := generate.NewClaude(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		addGenerator(c, c.Model())
	}
	if cfg.WikiEnabled {
		sentences := 0
		if p, err := cfg.Profiles.Get("wiki"); err == nil {
			sentences = p.SentencesPerSection
		}
		reg["wiki"] = wiki.New(wiki.Config{
			BaseURL:             cfg.WikiBaseURL,
			Lang:                cfg.WikiLang,
			SentencesPerSection: sentences,
		}, log.With("source", "wiki"))
	}
	return reg, backends
}

// NewBuilder wires a Builder from cfg.
func NewBuilder(cfg config.Config, log *slog.Logger) (*Builder, []Backend) {
	reg, backends := NewSources(cfg, log)
	return &Builder{
		Sources:         reg,
		Profiles:        cfg.Profiles,
		OutputDir:       cfg.OutputDir,
		ReferenceTokens: cfg.ReferenceTokens,
		Log:             log,
	}, backends
}
