package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lueurxax/netdisk-aggregator/internal/apperr"
	"github.com/lueurxax/netdisk-aggregator/internal/auth"
	"github.com/lueurxax/netdisk-aggregator/internal/domain"
	"github.com/lueurxax/netdisk-aggregator/internal/userstore"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		writeError(w, apperr.Internal("list users", err))

		return
	}

	out := make([]userView, len(users))
	for i, u := range users {
		out[i] = toUserView(u)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExportAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		writeError(w, apperr.Internal("export users", err))

		return
	}

	writeJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     domain.UserRole `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, apperr.Validation("username and password are required"))

		return
	}

	if req.Role == "" {
		req.Role = domain.RoleUser
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, apperr.Internal("hash password", err))

		return
	}

	u := domain.User{Username: req.Username, PasswordHash: hash, Name: req.Name, Email: req.Email, Role: req.Role}

	if err := s.users.Create(r.Context(), u); err != nil {
		if err == userstore.ErrAlreadyExists {
			writeError(w, apperr.Validation(err.Error()))

			return
		}

		writeError(w, apperr.Internal("create user", err))

		return
	}

	writeJSON(w, http.StatusCreated, toUserView(u))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	u, err := s.users.Get(r.Context(), username)
	if err != nil {
		writeError(w, apperr.Internal("get user", err))

		return
	}

	if u == nil {
		writeError(w, apperr.NotFound("user not found"))

		return
	}

	writeJSON(w, http.StatusOK, toUserView(*u))
}

type updateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// handleUpdateUser updates the profile fields a dashboard account can carry
// beyond password/username/role, each of which has its own dedicated
// endpoint per spec.md §6.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if err := s.users.SetProfile(r.Context(), username, req.Name, req.Email); err != nil {
		if err == userstore.ErrNotFound {
			writeError(w, apperr.NotFound(err.Error()))

			return
		}

		writeError(w, apperr.Internal("update user", err))

		return
	}

	u, err := s.users.Get(r.Context(), username)
	if err != nil {
		writeError(w, apperr.Internal("get user", err))

		return
	}

	writeJSON(w, http.StatusOK, toUserView(*u))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	if err := s.users.Delete(r.Context(), username); err != nil {
		if err == userstore.ErrNotFound {
			writeError(w, apperr.NotFound(err.Error()))

			return
		}

		writeError(w, apperr.Internal("delete user", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type setPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (s *Server) handleSetUserPassword(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	var req setPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, apperr.Internal("hash password", err))

		return
	}

	if err := s.users.SetPasswordHash(r.Context(), username, hash); err != nil {
		if err == userstore.ErrNotFound {
			writeError(w, apperr.NotFound(err.Error()))

			return
		}

		writeError(w, apperr.Internal("set password", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type setUsernameRequest struct {
	NewUsername string `json:"new_username"`
}

func (s *Server) handleSetUsername(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	var req setUsernameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if err := s.users.SetUsername(r.Context(), username, req.NewUsername); err != nil {
		if err == userstore.ErrNotFound || err == userstore.ErrAlreadyExists {
			writeError(w, apperr.Validation(err.Error()))

			return
		}

		writeError(w, apperr.Internal("set username", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type setRoleRequest struct {
	Role domain.UserRole `json:"role"`
}

func (s *Server) handleSetUserRole(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	var req setRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if err := s.users.SetRole(r.Context(), username, req.Role); err != nil {
		if err == userstore.ErrNotFound {
			writeError(w, apperr.NotFound(err.Error()))

			return
		}

		writeError(w, apperr.Internal("set role", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type usernamesRequest struct {
	Usernames []string `json:"usernames"`
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req usernamesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if err := s.users.BulkDelete(r.Context(), req.Usernames); err != nil {
		writeError(w, apperr.Internal("bulk delete users", err))

		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type bulkRandomCreateRequest struct {
	Count int `json:"count"`
}

func (s *Server) handleBulkRandomCreate(w http.ResponseWriter, r *http.Request) {
	var req bulkRandomCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	if req.Count <= 0 {
		writeError(w, apperr.Validation("count must be positive"))

		return
	}

	created, err := s.users.BulkRandomCreate(r.Context(), req.Count, auth.HashPassword)
	if err != nil {
		writeError(w, apperr.Internal("bulk create users", err))

		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleBulkResetPassword(w http.ResponseWriter, r *http.Request) {
	var req usernamesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)

		return
	}

	reset, err := s.users.BulkResetPassword(r.Context(), req.Usernames, auth.HashPassword)
	if err != nil {
		writeError(w, apperr.Internal("bulk reset passwords", err))

		return
	}

	writeJSON(w, http.StatusOK, reset)
}
