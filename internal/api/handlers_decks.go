package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/deckgest/internal/parser"
	"github.com/dgallion1/deckgest/internal/pipeline"
	"github.com/dgallion1/deckgest/internal/render"
	"github.com/dgallion1/deckgest/internal/slides"
	"github.com/dgallion1/deckgest/internal/source"
	"github.com/dgallion1/deckgest/internal/source/document"
)

const jsonBodyLimit = 1 << 20

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, jsonBodyLimit)

	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.checkRequest(&req); err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}

	job, err := s.orchestrator.Submit(req)
	if err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	s.log.Info("deck queued", "job_id", job.ID, "topic", req.Topic, "source", req.Source)
	writeJSON(w, http.StatusAccepted, acceptedBody(job))
}

type batchRequest struct {
	Topics     []string      `json:"topics"`
	Source     string        `json:"source"`
	Profile    string        `json:"profile"`
	Format     string        `json:"format"`
	Budget     slides.Budget `json:"budget"`
	KeepMarkup bool          `json:"keep_markup"`
}

// handleBatchDecks queues one job per topic with shared settings. Topics that
// cannot be queued are reported individually.
func (s *Server) handleBatchDecks(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, jsonBodyLimit)

	var batch batchRequest
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(batch.Topics) == 0 {
		jsonError(w, "at least one topic is required", http.StatusBadRequest)
		return
	}

	var results []map[string]any
	for _, topic := range batch.Topics {
		req := pipeline.Request{
			Topic:      topic,
			Source:     batch.Source,
			Profile:    batch.Profile,
			Format:     batch.Format,
			Budget:     batch.Budget,
			KeepMarkup: batch.KeepMarkup,
		}
		if err := s.checkRequest(&req); err != nil {
			results = append(results, map[string]any{"topic": topic, "error": err.Error()})
			continue
		}
		job, err := s.orchestrator.Submit(req)
		if err != nil {
			results = append(results, map[string]any{"topic": topic, "error": err.Error()})
			continue
		}
		body := acceptedBody(job)
		body["topic"] = req.Topic
		results = append(results, body)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

// handleUploadDeck builds a deck from an uploaded document, or uses the
// document as reference material when a generator source is named.
func (s *Server) handleUploadDeck(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	budget, err := formBudget(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := pipeline.Request{
		Topic:      strings.TrimSpace(r.FormValue("topic")),
		Source:     r.FormValue("source"),
		Profile:    r.FormValue("profile"),
		Format:     r.FormValue("format"),
		Budget:     budget,
		KeepMarkup: r.FormValue("keep_markup") == "true",
		Filename:   filename,
		Data:       data,
	}
	if req.Source == "" {
		req.Source = pipeline.SourceDocument
	}
	if req.Source == pipeline.SourceDocument && req.Profile == "" {
		req.Profile = pipeline.SourceDocument
	}
	// Reject unreadable documents before queuing.
	if req.Source == pipeline.SourceDocument {
		if _, err := document.Parse(filename, data); err != nil {
			jsonError(w, err.Error(), statusForError(err))
			return
		}
	}
	if err := s.checkRequest(&req); err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}

	job, err := s.orchestrator.Submit(req)
	if err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	s.log.Info("document deck queued", "job_id", job.ID, "filename", filename, "bytes", len(data), "source", req.Source)
	body := acceptedBody(job)
	body["filename"] = filename
	writeJSON(w, http.StatusAccepted, body)
}

func (s *Server) handleDeckStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	body := map[string]any{"job": snap}
	if snap.Status == pipeline.StatusCompleted {
		body["file_url"] = fileURL(snap.ID)
	}
	writeJSON(w, http.StatusOK, body)
}

// handleDeckFile streams the rendered deck. Jobs that ended without a file
// answer with what the lookup found instead.
func (s *Server) handleDeckFile(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	path, ok := job.File()
	if !ok {
		snap := job.Snapshot()
		switch snap.Status {
		case pipeline.StatusNotFound:
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error":      fmt.Sprintf("no article found for %q", snap.Topic),
				"candidates": snap.Candidates,
			})
		case pipeline.StatusAmbiguous:
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":   fmt.Sprintf("%q is ambiguous", snap.Topic),
				"options": snap.Options,
			})
		case pipeline.StatusFailed:
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":  "deck build failed",
				"errors": snap.Errors,
			})
		default:
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":  "deck not ready",
				"status": snap.Status,
			})
		}
		return
	}

	name := filepath.Base(path)
	w.Header().Set("Content-Type", contentType(name))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// checkRequest fills defaults and rejects requests that cannot succeed, so
// callers hear about them before a job is queued.
func (s *Server) checkRequest(req *pipeline.Request) error {
	req.Topic = strings.TrimSpace(req.Topic)
	sources := s.cfg.Sources()
	if req.Source == "" && req.Data == nil {
		if len(sources) == 0 {
			return fmt.Errorf("%w: no content source configured", source.ErrUnknownProvider)
		}
		req.Source = sources[0]
	}
	if req.Source == pipeline.SourceDocument && req.Data == nil {
		return fmt.Errorf("%w: the document source needs an upload", pipeline.ErrInvalidRequest)
	}
	if req.Source != pipeline.SourceDocument {
		if !slices.Contains(sources, req.Source) {
			return fmt.Errorf("%w %q (have %v)", source.ErrUnknownProvider, req.Source, sources)
		}
		if req.Topic == "" {
			return fmt.Errorf("%w: topic is required", pipeline.ErrInvalidRequest)
		}
	}
	if _, err := render.New(req.Format); err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrInvalidRequest, err)
	}
	if _, _, err := s.orchestrator.Builder().ResolveBudget(req.Profile, req.Budget); err != nil {
		return err
	}
	return nil
}

// formBudget reads optional budget overrides from form fields named like
// the JSON budget keys.
func formBudget(r *http.Request) (slides.Budget, error) {
	var b slides.Budget
	fields := []struct {
		key string
		dst *int
	}{
		{"max_slides", &b.MaxSlides},
		{"max_bullet_chars", &b.MaxBulletChars},
		{"max_total_chars", &b.MaxTotalChars},
		{"min_meaningful_chars", &b.MinMeaningfulChars},
	}
	for _, f := range fields {
		v := r.FormValue(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return slides.Budget{}, fmt.Errorf("%s: %q is not a number", f.key, v)
		}
		*f.dst = n
	}
	return b, nil
}

func acceptedBody(job *pipeline.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/decks/%s/status", snap.ID),
		"file_url": fileURL(snap.ID),
	}
}

func fileURL(id string) string {
	return fmt.Sprintf("/api/decks/%s/file", id)
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".md":
		return "text/markdown; charset=utf-8"
	}
	return "application/octet-stream"
}

// statusForError maps pipeline and source errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest),
		errors.Is(err, source.ErrUnknownProvider),
		errors.Is(err, document.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, source.ErrAmbiguous):
		return http.StatusConflict
	case errors.Is(err, slides.ErrNoSlides):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrQueueFull),
		errors.Is(err, pipeline.ErrStopped),
		errors.Is(err, source.ErrMissingCredentials):
		return http.StatusServiceUnavailable
	case errors.Is(err, source.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
