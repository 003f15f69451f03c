package api

import (
	"net/http"

	"github.com/lueurxax/netdisk-aggregator/internal/apperr"
	"github.com/lueurxax/netdisk-aggregator/internal/dedup"
)

func (s *Server) handleFixTags(w http.ResponseWriter, r *http.Request) {
	res, err := dedup.FixTags(r.Context(), s.messagesRepo)
	if err != nil {
		writeError(w, apperr.Internal("fix tags", err))

		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDedupLinks(w http.ResponseWriter, r *http.Request) {
	res, err := s.dedupEngine.RunStrict(r.Context())
	if err != nil {
		writeError(w, apperr.Internal("dedup links", err))

		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClearLinkCheckData(w http.ResponseWriter, r *http.Request) {
	if err := s.maint.ClearLinkCheckData(r.Context()); err != nil {
		writeError(w, apperr.Internal("clear link check data", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type clearOldLinkCheckRequest struct {
	Days int `json:"days"`
}

func (s *Server) handleClearOldLinkCheckData(w http.ResponseWriter, r *http.Request) {
	var req clearOldLinkCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if req.Days <= 0 {
		writeError(w, apperr.Validation("days must be positive"))

		return
	}

	if err := s.maint.ClearOldLinkCheckData(r.Context(), req.Days); err != nil {
		writeError(w, apperr.Internal("clear old link check data", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
