package api

import (
	"net/http"
	"strconv"

	"github.com/lueurxax/netdisk-aggregator/internal/apperr"
	"github.com/lueurxax/netdisk-aggregator/internal/platform/config"
)

type adminConfigView struct {
	PublicDashboardEnabled bool `json:"public_dashboard_enabled"`
}

func (s *Server) handleGetAdminConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, adminConfigView{PublicDashboardEnabled: s.cfg.PublicDashboardEnabled})
}

// handlePutAdminConfig flips the in-process flag and persists it back to the
// env file, preserving every other key, per spec.md §6.
func (s *Server) handlePutAdminConfig(w http.ResponseWriter, r *http.Request) {
	var req adminConfigView
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	s.cfg.PublicDashboardEnabled = req.PublicDashboardEnabled

	value := strconv.FormatBool(req.PublicDashboardEnabled)
	if err := config.SetEnvValue(s.cfg.EnvFilePath, "PUBLIC_DASHBOARD_ENABLED", value); err != nil {
		writeError(w, apperr.Internal("persist config", err))

		return
	}

	writeJSON(w, http.StatusOK, adminConfigView{PublicDashboardEnabled: s.cfg.PublicDashboardEnabled})
}
