package auth

import (
	"context"
	"errors"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
)

// ErrInvalidCredentials is returned by Login on an unknown user or a
// password mismatch; callers must not distinguish the two to avoid
// leaking which usernames exist.
var ErrInvalidCredentials = errors.New("invalid username or password")

// UserStore is the subset of internal/userstore.Store the auth service
// needs, kept as a local interface so this package doesn't import the
// concrete JSON-file store.
type UserStore interface {
	Get(ctx context.Context, username string) (*domain.User, error)
	SetPasswordHash(ctx context.Context, username, hash string) error
}

// Service authenticates users and issues bearer tokens, grounded on
// auth_service.py::authenticate_user/create_access_token.
type Service struct {
	users  UserStore
	signer *Signer
}

// NewService constructs a Service.
func NewService(users UserStore, signer *Signer) *Service {
	return &Service{users: users, signer: signer}
}

// Login verifies username/password and returns a signed token plus the
// matched user record.
func (s *Service) Login(ctx context.Context, username, password string) (string, domain.User, error) {
	u, err := s.users.Get(ctx, username)
	if err != nil {
		return "", domain.User{}, err
	}

	if u == nil || !VerifyPassword(password, u.PasswordHash) {
		return "", domain.User{}, ErrInvalidCredentials
	}

	token, err := s.signer.IssueToken(u.Username)
	if err != nil {
		return "", domain.User{}, err
	}

	return token, *u, nil
}

// Authenticate validates a bearer token and returns the corresponding user.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	username, err := s.signer.ParseToken(token)
	if err != nil {
		return domain.User{}, err
	}

	u, err := s.users.Get(ctx, username)
	if err != nil {
		return domain.User{}, err
	}

	if u == nil {
		return domain.User{}, ErrInvalidToken
	}

	return *u, nil
}

// ChangePassword verifies oldPassword against the stored hash before
// writing newPassword's hash.
func (s *Service) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	u, err := s.users.Get(ctx, username)
	if err != nil {
		return err
	}

	if u == nil || !VerifyPassword(oldPassword, u.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.users.SetPasswordHash(ctx, username, hash)
}
