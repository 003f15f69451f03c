package api

import (
	"net/http"

	"github.com/lueurxax/netdisk-aggregator/internal/apperr"
	"github.com/lueurxax/netdisk-aggregator/internal/auth"
	"github.com/lueurxax/netdisk-aggregator/internal/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        userView `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	token, u, err := s.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if err == auth.ErrInvalidCredentials {
			writeError(w, apperr.Unauthorized(err.Error()))

			return
		}

		writeError(w, apperr.Internal("login", err))

		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        toUserView(u),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("not authenticated"))

		return
	}

	writeJSON(w, http.StatusOK, toUserView(u))
}

// handleLogout is a no-op beyond confirming the token: bearer tokens are
// stateless and expire on their own, so there is nothing server-side to
// revoke.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handleChangeOwnPassword(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("not authenticated"))

		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if err := s.authSvc.ChangePassword(r.Context(), u.Username, req.OldPassword, req.NewPassword); err != nil {
		if err == auth.ErrInvalidCredentials {
			writeError(w, apperr.Validation(err.Error()))

			return
		}

		writeError(w, apperr.Internal("change password", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handlePublicConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"public_dashboard_enabled": s.cfg.DashboardCfg().PublicEnabled})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Pool.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toUserView(u domain.User) userView {
	return userView{Username: u.Username, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}
