// Package wiki fetches encyclopedia articles from a MediaWiki API.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/deckgest/internal/parser"
	"github.com/dgallion1/deckgest/internal/source"
)

// DefaultSkip lists back-matter sections that never become slides.
var DefaultSkip = []string{
	"References", "See also", "External links", "Notes",
	"Further reading", "Bibliography", "Sources",
}

const (
	userAgent   = "deckgest/1.0 (slide deck generator)"
	searchLimit = 5
	maxBody     = 8 << 20
)

// Config configures a Client.
type Config struct {
	// BaseURL is the api.php endpoint. Empty means Wikipedia in Lang.
	BaseURL             string
	Lang                string
	SentencesPerSection int
	Timeout             time.Duration
}

// Client is a source.Provider for MediaWiki sites.
type Client struct {
	endpoint   string
	sentences  int
	httpClient *http.Client
	log        *slog.Logger
}

var _ source.Provider = (*Client)(nil)

func New(cfg Config, log *slog.Logger) *Client {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		lang := cfg.Lang
		if lang == "" {
			lang = "en"
		}
		endpoint = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang)
	}
	if cfg.SentencesPerSection <= 0 {
		cfg.SentencesPerSection = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		endpoint:   endpoint,
		sentences:  cfg.SentencesPerSection,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With("source", "wiki"),
	}
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type parseResponse struct {
	Parse *struct {
		Title      string          `json:"title"`
		Text       string          `json:"text"`
		Properties json.RawMessage `json:"properties"`
	} `json:"parse"`
	Error *apiError `json:"error"`
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
	Error *apiError `json:"error"`
}

// Fetch resolves topic to an article. A missing page yields NotFound with
// search suggestions; a disambiguation page yields Ambiguous with its links.
func (c *Client) Fetch(ctx context.Context, topic string) (source.Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return source.NotFoundResult(nil), nil
	}

	var pr parseResponse
	err := c.get(ctx, url.Values{
		"action":             {"parse"},
		"page":               {topic},
		"prop":               {"text|properties"},
		"redirects":          {"1"},
		"disableeditsection": {"1"},
	}, &pr)
	if err != nil {
		return source.Result{}, err
	}

	if pr.Error != nil {
		if pr.Error.Code != "missingtitle" && pr.Error.Code != "invalidtitle" {
			return source.Result{}, fmt.Errorf("%w: wiki %s: %s", source.ErrUpstream, pr.Error.Code, pr.Error.Info)
		}
		candidates, err := c.search(ctx, topic)
		if err != nil {
			return source.Result{}, err
		}
		c.log.Info("page not found", "topic", topic, "candidates", len(candidates))
		return source.NotFoundResult(candidates), nil
	}
	if pr.Parse == nil {
		return source.Result{}, fmt.Errorf("%w: wiki parse response without page", source.ErrUpstream)
	}

	title := pr.Parse.Title
	if hasProperty(pr.Parse.Properties, "disambiguation") {
		options := disambiguationOptions(pr.Parse.Text)
		c.log.Info("disambiguation page", "topic", topic, "options", len(options))
		return source.AmbiguousResult(options), nil
	}

	o, err := (&parser.HTMLParser{}).Parse(strings.NewReader(pr.Parse.Text), "")
	if err != nil {
		return source.Result{}, fmt.Errorf("wiki article %q: %w", title, err)
	}
	o.Title = title

	text := source.Blob(o, source.BlobOptions{
		SentencesPerSection: c.sentences,
		LeadTitle:           "Overview",
		Skip:                DefaultSkip,
	})
	c.log.Info("fetched article", "topic", topic, "title", title, "chars", len(text))
	return source.FoundResult(title, text), nil
}

func (c *Client) search(ctx context.Context, topic string) ([]string, error) {
	var sr searchResponse
	err := c.get(ctx, url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {topic},
		"srlimit":  {fmt.Sprint(searchLimit)},
	}, &sr)
	if err != nil {
		return nil, err
	}
	if sr.Error != nil {
		return nil, fmt.Errorf("%w: wiki search %s: %s", source.ErrUpstream, sr.Error.Code, sr.Error.Info)
	}
	titles := make([]string, 0, len(sr.Query.Search))
	for _, hit := range sr.Query.Search {
		titles = append(titles, hit.Title)
	}
	return titles, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wiki %s: %w", params.Get("action"), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &source.RetryableError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: wiki status %d: %s", source.ErrUpstream, resp.StatusCode, source.Truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode wiki response: %v", source.ErrUpstream, err)
	}
	return nil
}

// hasProperty accepts both the formatversion=2 object form and the legacy
// list of {"name": ...} entries.
func hasProperty(raw json.RawMessage, name string) bool {
	if len(raw) == 0 {
		return false
	}
	var obj map[string]any
	if json.Unmarshal(raw, &obj) == nil {
		_, ok := obj[name]
		return ok
	}
	var list []struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(raw, &list) == nil {
		for _, p := range list {
			if p.Name == name {
				return true
			}
		}
	}
	return false
}
