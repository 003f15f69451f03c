package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lueurxax/netdisk-aggregator/internal/apperr"
	"github.com/lueurxax/netdisk-aggregator/internal/query"
)

// requireDashboardAccess reports whether the request may proceed to a
// public-dashboard-eligible endpoint: any authenticated user passes, a guest
// passes only when the dashboard has been turned public. req is coerced to
// guest restrictions in place when the caller is a guest.
func (s *Server) requireDashboardAccess(w http.ResponseWriter, r *http.Request, req *query.PageRequest) bool {
	if _, ok := userFromContext(r.Context()); ok {
		return true
	}

	if !isGuest(r.Context()) || !s.guestAllowed() {
		writeError(w, apperr.Unauthorized("authentication required"))

		return false
	}

	if req != nil {
		*req = query.CoerceGuest(*req)
	}

	return true
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}

	return n
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := query.PageRequest{
		QueryText:   q.Get("q"),
		TimeRange:   q.Get("time_range"),
		Tags:        splitCSV(q.Get("tags")),
		Providers:   splitCSV(q.Get("providers")),
		MinTotalLen: atoiDefault(q.Get("min_total_len"), 0),
		LinksOnly:   q.Get("links_only") == "true",
		Page:        atoiDefault(q.Get("page"), 1),
		PageSize:    atoiDefault(q.Get("page_size"), 0),
	}

	if !s.requireDashboardAccess(w, r, &req) {
		return
	}

	res, err := s.messages.ListMessages(r.Context(), req)
	if err != nil {
		writeError(w, apperr.Internal("list messages", err))

		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	if !s.requireDashboardAccess(w, r, nil) {
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, apperr.Validation("invalid message id"))

		return
	}

	m, err := s.messagesRepo.Get(r.Context(), id)
	if err != nil {
		writeError(w, apperr.Internal("get message", err))

		return
	}

	if m == nil {
		writeError(w, apperr.NotFound("message not found"))

		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleTagStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireDashboardAccess(w, r, nil) {
		return
	}

	limit := atoiDefault(r.URL.Query().Get("limit"), 20)

	stats, err := s.messages.TagStats(r.Context(), limit)
	if err != nil {
		writeError(w, apperr.Internal("tag stats", err))

		return
	}

	writeJSON(w, http.StatusOK, stats)
}
