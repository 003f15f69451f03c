package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/netdisk-aggregator/internal/apperr"
	"github.com/lueurxax/netdisk-aggregator/internal/ingest"
)

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.channels.List(r.Context())
	if err != nil {
		writeError(w, apperr.Internal("list channels", err))

		return
	}

	writeJSON(w, http.StatusOK, channels)
}

type channelRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if req.Username == "" {
		writeError(w, apperr.Validation("username is required"))

		return
	}

	id, err := s.channels.Insert(r.Context(), req.Username)
	if err != nil {
		writeError(w, apperr.Internal("insert channel", err))

		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, apperr.Validation("invalid channel id"))

		return
	}

	var req channelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if err := s.channels.Update(r.Context(), id, req.Username); err != nil {
		if err == pgx.ErrNoRows {
			writeError(w, apperr.NotFound("channel not found"))

			return
		}

		writeError(w, apperr.Internal("update channel", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, apperr.Validation("invalid channel id"))

		return
	}

	if err := s.channels.Delete(r.Context(), id); err != nil {
		writeError(w, apperr.Internal("delete channel", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleChannelsDiagnose(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if req.Username == "" {
		writeError(w, apperr.Validation("username is required"))

		return
	}

	reachable, err := ingest.Diagnose(r.Context(), s.cfg.TelegramMTProtoCfg(), req.Username)
	if err != nil {
		writeError(w, apperr.Internal("diagnose channel", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"reachable": reachable})
}

func (s *Server) handleChannelsTestMonitor(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if req.Username == "" {
		writeError(w, apperr.Validation("username is required"))

		return
	}

	msg, found, err := ingest.TestMonitor(r.Context(), s.cfg.TelegramMTProtoCfg(), req.Username)
	if err != nil {
		writeError(w, apperr.Internal("test monitor channel", err))

		return
	}

	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"found": false})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"found": true, "message": msg})
}
