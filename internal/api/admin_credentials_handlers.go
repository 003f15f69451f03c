package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lueurxax/netdisk-aggregator/internal/apperr"
)

func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := s.credentials.List(r.Context())
	if err != nil {
		writeError(w, apperr.Internal("list credentials", err))

		return
	}

	writeJSON(w, http.StatusOK, creds)
}

type credentialRequest struct {
	APIID   string `json:"api_id"`
	APIHash string `json:"api_hash"`
}

func (s *Server) handleCreateCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if req.APIID == "" || req.APIHash == "" {
		writeError(w, apperr.Validation("api_id and api_hash are required"))

		return
	}

	id, err := s.credentials.Insert(r.Context(), req.APIID, req.APIHash)
	if err != nil {
		writeError(w, apperr.Internal("insert credential", err))

		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, apperr.Validation("invalid credential id"))

		return
	}

	if err := s.credentials.Delete(r.Context(), id); err != nil {
		writeError(w, apperr.Internal("delete credential", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
