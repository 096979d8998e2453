package api

import (
	"net/http"

	"github.com/dgallion1/deckgest/internal/config"
	"github.com/dgallion1/deckgest/internal/render"
	"github.com/dgallion1/deckgest/internal/source/generate"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if len(s.backends) == 0 {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	type backendStats struct {
		Model string                 `json:"model"`
		Stats generate.StatsSnapshot `json:"stats"`
	}
	out := make(map[string]backendStats, len(s.backends))
	for _, b := range s.backends {
		if b.Stats == nil {
			continue
		}
		out[b.Name] = backendStats{Model: b.Model, Stats: b.Stats.Snapshot()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"backends": out})
}

// handleProfiles describes what a request may name.
func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":  config.DefaultProfile,
		"profiles": s.orchestrator.Builder().Profiles,
		"sources":  s.cfg.Sources(),
		"formats":  render.Formats,
	})
}
