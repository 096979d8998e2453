package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/deckgest/internal/config"
	"github.com/dgallion1/deckgest/internal/pipeline"
	"github.com/dgallion1/deckgest/internal/source"
	"github.com/dgallion1/deckgest/internal/source/generate"
)

const (
	testKey = "secret"

	goBlob = `## Introduction
- Go is a statically typed, compiled language designed at Google.
- Programs are built with the go command.

## Concurrency
- Goroutines are lightweight threads managed by the runtime.
`
)

func fakeWiki(_ context.Context, topic string) (source.Result, error) {
	switch topic {
	case "Mercury":
		return source.AmbiguousResult([]string{"Mercury (planet)", "Mercury (element)"}), nil
	case "Nope":
		return source.NotFoundResult([]string{"Nopal"}), nil
	}
	return source.FoundResult(topic, goBlob), nil
}

func newTestServer(t *testing.T, backends []pipeline.Backend) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		APIKey:         testKey,
		WikiEnabled:    true,
		MaxUploadBytes: 1 << 20,
		Profiles:       config.BuiltinProfiles(),
	}
	b := &pipeline.Builder{
		Sources:         source.Registry{"wiki": source.ProviderFunc(fakeWiki)},
		Profiles:        cfg.Profiles,
		OutputDir:       t.TempDir(),
		ReferenceTokens: 500,
		Log:             log,
		Wait:            func(int) time.Duration { return 0 },
	}
	orch := pipeline.NewOrchestrator(b, pipeline.Options{WorkerCount: 2, MaxQueueSize: 8}, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, backends, log, cfg)
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	return do(t, s, method, path, r, "application/json")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func waitDone(t *testing.T, s *Server, id string) pipeline.JobSnapshot {
	t.Helper()
	for range 200 {
		rec := doJSON(t, s, http.MethodGet, "/api/decks/"+id+"/status", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Job pipeline.JobSnapshot `json:"job"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		if body.Job.Status.Terminal() {
			return body.Job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return pipeline.JobSnapshot{}
}

func submit(t *testing.T, s *Server, body any) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/decks", body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	id, _ := decode(t, rec)["job_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profiles", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid api key", decode(t, rec)["error"])
}

func TestCreateDeckAndDownload(t *testing.T) {
	s := newTestServer(t, nil)
	id := submit(t, s, map[string]any{"topic": "Go", "format": "md"})

	snap := waitDone(t, s, id)
	require.Equal(t, pipeline.StatusCompleted, snap.Status, snap.Errors)
	assert.Equal(t, "wiki", snap.Source)
	assert.Equal(t, 2, snap.SlideCount)

	rec := doJSON(t, s, http.MethodGet, "/api/decks/"+id+"/file", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Go_presentation.md")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# Go\n"))
	assert.Contains(t, rec.Body.String(), "## Concurrency\n")
}

func TestCreateDeckValidation(t *testing.T) {
	s := newTestServer(t, nil)
	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing topic", map[string]any{"topic": "  "}},
		{"unknown source", map[string]any{"topic": "Go", "source": "openai"}},
		{"unknown format", map[string]any{"topic": "Go", "format": "pptx"}},
		{"unknown profile", map[string]any{"topic": "Go", "profile": "poster"}},
		{"bad budget", map[string]any{"topic": "Go", "budget": map[string]int{"max_bullet_chars": 2}}},
		{"document without upload", map[string]any{"topic": "Go", "source": "document"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/decks", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, s, http.MethodPost, "/api/decks", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeckFileLookupOutcomes(t *testing.T) {
	s := newTestServer(t, nil)

	nope := submit(t, s, map[string]any{"topic": "Nope"})
	assert.Equal(t, pipeline.StatusNotFound, waitDone(t, s, nope).Status)
	rec := doJSON(t, s, http.MethodGet, "/api/decks/"+nope+"/file", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []any{"Nopal"}, decode(t, rec)["candidates"])

	amb := submit(t, s, map[string]any{"topic": "Mercury"})
	assert.Equal(t, pipeline.StatusAmbiguous, waitDone(t, s, amb).Status)
	rec = doJSON(t, s, http.MethodGet, "/api/decks/"+amb+"/file", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, []any{"Mercury (planet)", "Mercury (element)"}, decode(t, rec)["options"])

	rec = doJSON(t, s, http.MethodGet, "/api/decks/unknown/file", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchDecks(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doJSON(t, s, http.MethodPost, "/api/decks/batch", map[string]any{
		"topics": []string{"Go", " "},
		"format": "md",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var body struct {
		Jobs []map[string]any `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Jobs, 2)
	assert.NotEmpty(t, body.Jobs[0]["job_id"])
	assert.Contains(t, body.Jobs[1]["error"], "topic is required")

	rec = doJSON(t, s, http.MethodPost, "/api/decks/batch", map[string]any{"topics": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadDeck(t *testing.T) {
	s := newTestServer(t, nil)
	notes := "# Field Notes\n\n## Setup\n\nThe team installed every sensor along the northern ridge before dawn.\n\n## Results\n\nReadings stayed within the expected range for the whole week.\n"

	body, ct := multipartBody(t, "../notes.md", notes, map[string]string{"format": "md", "max_slides": "5"})
	rec := do(t, s, http.MethodPost, "/api/decks/upload", body, ct)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "notes.md", out["filename"])

	snap := waitDone(t, s, out["job_id"].(string))
	require.Equal(t, pipeline.StatusCompleted, snap.Status, snap.Errors)
	assert.Equal(t, pipeline.SourceDocument, snap.Source)
	assert.Equal(t, pipeline.SourceDocument, snap.Profile)
	require.NotNil(t, snap.Deck)
	assert.Equal(t, "notes", snap.Deck.Topic)
	require.Len(t, snap.Deck.Slides, 2)
	assert.Equal(t, "Field Notes / Setup", snap.Deck.Slides[0].Title)
}

func TestUploadDeckRejects(t *testing.T) {
	s := newTestServer(t, nil)

	body, ct := multipartBody(t, "slides.pptx", "x", nil)
	rec := do(t, s, http.MethodPost, "/api/decks/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, "notes.md", "# Notes\n", map[string]string{"max_slides": "many"})
	rec = do(t, s, http.MethodPost, "/api/decks/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "max_slides")

	big := strings.Repeat("a", 2<<20)
	body, ct = multipartBody(t, "notes.txt", big, nil)
	rec = do(t, s, http.MethodPost, "/api/decks/upload", body, ct)
	assert.GreaterOrEqual(t, rec.Code, 400)
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/preview", map[string]any{
		"topic":  "Go",
		"text":   goBlob,
		"budget": map[string]int{"max_slides": 1},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.EqualValues(t, 1, out["slide_count"])
	assert.EqualValues(t, 1, out["budget"].(map[string]any)["max_slides"])

	rec = doJSON(t, s, http.MethodPost, "/api/preview", map[string]any{"text": "no headings here"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/preview", map[string]any{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/preview", map[string]any{"text": goBlob, "profile": "poster"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAndDeleteDecks(t *testing.T) {
	s := newTestServer(t, nil)
	id := submit(t, s, map[string]any{"topic": "Go", "format": "md"})
	waitDone(t, s, id)

	rec := doJSON(t, s, http.MethodGet, "/api/decks?status=completed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Jobs []struct {
			Job pipeline.JobSnapshot `json:"job"`
		} `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, id, list.Jobs[0].Job.ID)
	assert.Nil(t, list.Jobs[0].Job.Deck)

	rec = doJSON(t, s, http.MethodDelete, "/api/decks/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, s, http.MethodGet, "/api/decks/"+id+"/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, s, http.MethodDelete, "/api/decks/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfilesAndStats(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doJSON(t, s, http.MethodGet, "/api/profiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, config.DefaultProfile, out["default"])
	assert.Contains(t, out["profiles"], "document")
	assert.Equal(t, []any{"wiki"}, out["sources"])

	rec = doJSON(t, s, http.MethodGet, "/api/stats/llm", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	stats := generate.NewStats(time.Minute)
	stats.Record(120)
	s = newTestServer(t, []pipeline.Backend{{Name: "openai", Model: "gpt", Stats: stats}})
	rec = doJSON(t, s, http.MethodGet, "/api/stats/llm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	backend := decode(t, rec)["backends"].(map[string]any)["openai"].(map[string]any)
	assert.Equal(t, "gpt", backend["model"])
	assert.EqualValues(t, 1, backend["stats"].(map[string]any)["count"])
}
