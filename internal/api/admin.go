package api

import (
	"net/http"
	"strconv"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/admin/stats"
	s.writeJSON(w, endpoint, http.StatusOK, map[string]any{
		"health": s.coord.Health(),
		"stats":  s.coord.Stats(),
	})
}

func (s *Server) handleAdminErrors(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/admin/errors"

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	recent := s.coord.History().Recent(limit)

	var archived []*domain.FailureRecord
	if s.archive != nil {
		records, err := s.archive.Recent(r.Context(), limit)
		if err != nil {
			s.log.Warn("failed to read failure archive", "error", err)
		} else {
			archived = records
		}
	}

	s.writeJSON(w, endpoint, http.StatusOK, map[string]any{
		"recent":   recent,
		"archived": archived,
	})
}

func (s *Server) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/admin/reset"
	s.coord.Reset()
	s.writeJSON(w, endpoint, http.StatusOK, map[string]string{"status": "reset"})
}
