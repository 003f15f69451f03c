package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/lueurxax/netdisk-aggregator/internal/apperr"
	"github.com/lueurxax/netdisk-aggregator/internal/domain"
	"github.com/lueurxax/netdisk-aggregator/internal/platform/observability"
)

// Rate limiting constants, matching the per-IP token-bucket policy
// internal/expandedview/handler.go applies to its token-gated endpoint.
const (
	rateLimitRequests = 60
	rateLimitBurst    = 90
	rateLimitWindow   = time.Minute
)

type contextKey int

const (
	userContextKey contextKey = iota
	guestContextKey
)

// limiterSet hands out one token bucket per client IP, guarded by a mutex,
// grounded on internal/expandedview/handler.go's allowRequest.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLimiterSet() *limiterSet {
	return &limiterSet{limiters: make(map[string]*rate.Limiter)}
}

func (s *limiterSet) allow(ip string) bool {
	s.mu.Lock()

	l, ok := s.limiters[ip]
	if !ok {
		l = rate.NewLimiter(rate.Every(rateLimitWindow/rateLimitRequests), rateLimitBurst)
		s.limiters[ip] = l
	}

	s.mu.Unlock()

	return l.Allow()
}

// getClientIP checks X-Forwarded-For, then X-Real-IP, then falls back to
// the TCP remote address, matching internal/expandedview/handler.go.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}

// rateLimit rejects requests once a client IP exceeds the shared bucket.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	limiters := newLimiterSet()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiters.allow(getClientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many requests"})

			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// observeLatency records every request's duration against
// observability.APIRequestDuration, grounded on
// internal/expandedview/handler.go's latency-histogram wrapping pattern.
func (s *Server) observeLatency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := mux.CurrentRoute(r)

		path := r.URL.Path
		if route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}

		observability.APIRequestDuration.
			WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, or "" if absent/malformed.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}

// optionalAuth resolves the bearer token if present and stashes the user in
// the request context; it never rejects a request, since public-dashboard
// endpoints must also be reachable by guests.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, withGuest(r))

			return
		}

		u, err := s.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, withGuest(r))

			return
		}

		next.ServeHTTP(w, withUser(r, u))
	})
}

// requireAuth rejects a request with no valid bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, apperr.Unauthorized("missing bearer token"))

			return
		}

		u, err := s.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, apperr.Unauthorized("invalid or expired token"))

			return
		}

		next.ServeHTTP(w, withUser(r, u))
	})
}

// requireAdmin must run after requireAuth; it rejects any non-admin user.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userFromContext(r.Context())
		if !ok || u.Role != domain.RoleAdmin {
			writeError(w, apperr.Forbidden("admin role required"))

			return
		}

		next.ServeHTTP(w, r)
	})
}

func withUser(r *http.Request, u domain.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, u))
}

func withGuest(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), guestContextKey, true))
}

func userFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userContextKey).(domain.User)

	return u, ok
}

func isGuest(ctx context.Context) bool {
	g, _ := ctx.Value(guestContextKey).(bool)

	return g
}

// guestAllowed reports whether a guest (unauthenticated) request may proceed
// to a public-dashboard-eligible endpoint, per spec.md §6's guest policy.
func (s *Server) guestAllowed() bool {
	return s.cfg.DashboardCfg().PublicEnabled
}

