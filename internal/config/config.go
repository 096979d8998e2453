package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/deckgest/internal/slides"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Rendered decks
	OutputDir string

	// Generation backends
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	// Encyclopedia
	WikiEnabled bool
	WikiBaseURL string
	WikiLang    string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Budget overrides for the default profile
	Budget slides.Budget

	// Token budget for document reference material in prompts
	ReferenceTokens int

	CORSOrigins []string

	ProfilesPath string
	Profiles     Profiles
}

// Load reads .env (if present) and the environment, then the profile file.
// Variables already set in the environment win over .env.
func Load() (Config, error) {
	_ = godotenv.Load()

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		openAIKey = os.Getenv("GITHUB_TOKEN")
	}

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DECKGEST_API_KEY"),

		OutputDir: envOr("OUTPUT_DIR", "decks"),

		OpenAIAPIKey:    openAIKey,
		OpenAIBaseURL:   envOr("OPENAI_BASE_URL", "https://models.github.ai/inference"),
		OpenAIModel:     envOr("OPENAI_MODEL", "openai/gpt-4.1"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		WikiEnabled: envBool("WIKI_ENABLED", true),
		WikiBaseURL: os.Getenv("WIKI_BASE_URL"),
		WikiLang:    envOr("WIKI_LANG", "en"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20971520), // 20MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		Budget: slides.Budget{
			MaxSlides:          envInt("MAX_SLIDES", 0),
			MaxBulletChars:     envInt("MAX_BULLET_CHARS", 0),
			MaxTotalChars:      envInt("MAX_TOTAL_CHARS", 0),
			MinMeaningfulChars: envInt("MIN_MEANINGFUL_CHARS", 0),
		},

		ReferenceTokens: envInt("REFERENCE_TOKENS", 3000),

		CORSOrigins: envList("CORS_ORIGINS"),

		ProfilesPath: envOr("DECKGEST_PROFILES", "profiles.toml"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20971520
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.ReferenceTokens <= 0 {
		cfg.ReferenceTokens = 3000
	}

	profiles, err := LoadProfiles(cfg.ProfilesPath, os.Getenv("DECKGEST_PROFILES") != "")
	if err != nil {
		return cfg, err
	}
	if ai, ok := profiles[DefaultProfile]; ok {
		ai.Budget = ai.Budget.Merge(cfg.Budget)
		profiles[DefaultProfile] = ai
	}
	cfg.Profiles = profiles

	return cfg, nil
}

// Sources lists the content sources that can serve requests.
func (c Config) Sources() []string {
	var names []string
	if c.OpenAIAPIKey != "" {
		names = append(names, "openai")
	}
	if c.AnthropicAPIKey != "" {
		names = append(names, "claude")
	}
	if c.WikiEnabled {
		names = append(names, "wiki")
	}
	return names
}

// Validate checks what every entry point needs.
func (c Config) Validate() error {
	if len(c.Sources()) == 0 {
		return errors.New("no content source configured: set OPENAI_API_KEY, GITHUB_TOKEN or ANTHROPIC_API_KEY, or enable WIKI_ENABLED")
	}
	for name, p := range c.Profiles {
		if err := p.Budget.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	return nil
}

// ValidateServer adds the requirements of the HTTP service.
func (c Config) ValidateServer() error {
	if c.APIKey == "" {
		return fmt.Errorf("DECKGEST_API_KEY is required")
	}
	return c.Validate()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
