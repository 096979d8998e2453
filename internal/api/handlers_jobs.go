package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListDecks lists tracked jobs without their deck bodies.
func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	snaps := s.orchestrator.Jobs()
	status := r.URL.Query().Get("status")

	jobs := make([]map[string]any, 0, len(snaps))
	for _, snap := range snaps {
		if status != "" && string(snap.Status) != status {
			continue
		}
		snap.Deck = nil
		jobs = append(jobs, map[string]any{
			"job":      snap,
			"poll_url": "/api/decks/" + snap.ID + "/status",
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// handleDeleteDeck forgets a finished job and deletes its rendered file.
func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	found, err := s.orchestrator.Remove(jobID)
	if !found {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	s.log.Info("deck deleted", "job_id", jobID)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": jobID})
}
