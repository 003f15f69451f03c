package api

import (
	"net/http"

	"github.com/lueurxax/netdisk-aggregator/internal/apperr"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if !s.requireDashboardAccess(w, r, nil) {
		return
	}

	overview, err := s.messages.Overview(r.Context())
	if err != nil {
		writeError(w, apperr.Internal("overview", err))

		return
	}

	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleDailyTrend(w http.ResponseWriter, r *http.Request) {
	if !s.requireDashboardAccess(w, r, nil) {
		return
	}

	days := atoiDefault(r.URL.Query().Get("days"), 10)

	points, err := s.messages.DailyTrend(r.Context(), days)
	if err != nil {
		writeError(w, apperr.Internal("daily trend", err))

		return
	}

	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleDedupStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireDashboardAccess(w, r, nil) {
		return
	}

	hours := atoiDefault(r.URL.Query().Get("hours"), 10)

	points, err := s.messages.DedupStats(r.Context(), hours)
	if err != nil {
		writeError(w, apperr.Internal("dedup stats", err))

		return
	}

	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleNetdiskDistribution(w http.ResponseWriter, r *http.Request) {
	if !s.requireDashboardAccess(w, r, nil) {
		return
	}

	hours := atoiDefault(r.URL.Query().Get("hours"), 24)

	points, err := s.messages.NetdiskDistribution(r.Context(), hours)
	if err != nil {
		writeError(w, apperr.Internal("netdisk distribution", err))

		return
	}

	writeJSON(w, http.StatusOK, points)
}
