package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/lueurxax/netdisk-aggregator/internal/apperr"
)

type linkCheckStartRequest struct {
	Period        string `json:"period"`
	MaxConcurrent int    `json:"max_concurrent"`
}

func (s *Server) handleLinkCheckStart(w http.ResponseWriter, r *http.Request) {
	var req linkCheckStartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if req.MaxConcurrent <= 0 {
		req.MaxConcurrent = 1
	}

	taskID, err := s.validator.Start(req.Period, req.MaxConcurrent, false)
	if err != nil {
		writeError(w, apperr.Validation(err.Error()))

		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (s *Server) handleLinkCheckTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["task_id"]

	st, ok := s.validator.Status(taskID)
	if !ok {
		writeError(w, apperr.NotFound("task not found"))

		return
	}

	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleLinkCheckCancel(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["task_id"]

	if _, ok := s.validator.Status(taskID); !ok {
		writeError(w, apperr.NotFound("task not found"))

		return
	}

	s.validator.Cancel(taskID)

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID, "status": "cancel requested"})
}

func (s *Server) handleLinkCheckHistory(w http.ResponseWriter, r *http.Request) {
	limit := atoiDefault(r.URL.Query().Get("limit"), 20)

	rows, err := s.linkChecks.History(r.Context(), limit)
	if err != nil {
		writeError(w, apperr.Internal("link check history", err))

		return
	}

	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleLinkCheckResult(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["check_time"]

	checkTime, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, apperr.Validation("check_time must be RFC3339"))

		return
	}

	stats, details, err := s.linkChecks.Result(r.Context(), checkTime)
	if err != nil {
		writeError(w, apperr.Internal("link check result", err))

		return
	}

	if stats == nil {
		writeError(w, apperr.NotFound("link check result not found"))

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stats": stats, "details": details})
}
