package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dgallion1/deckgest/internal/pipeline"
	"github.com/dgallion1/deckgest/internal/slides"
)

type previewRequest struct {
	Topic      string        `json:"topic"`
	Text       string        `json:"text"`
	Profile    string        `json:"profile"`
	Budget     slides.Budget `json:"budget"`
	KeepMarkup bool          `json:"keep_markup"`
}

// handlePreview parses and fits caller-supplied text without fetching or
// rendering anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	_, budget, err := s.orchestrator.Builder().ResolveBudget(req.Profile, req.Budget)
	if err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}

	deck := pipeline.BuildDeck(strings.TrimSpace(req.Topic), req.Text, budget, req.KeepMarkup)
	if deck.Empty() {
		jsonError(w, slides.ErrNoSlides.Error(), http.StatusUnprocessableEntity)
		return
	}

	total := 0
	for _, sl := range deck.Slides {
		total += slides.TotalChars(sl.Points)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deck":        deck,
		"budget":      budget,
		"slide_count": len(deck.Slides),
		"total_chars": total,
	})
}
