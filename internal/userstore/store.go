// Package userstore persists dashboard accounts as a single JSON document
// keyed by username, matching the user-file contract streamlit-authenticator
// established (original_source/app/services/user_service.py /
// auth_service.py). Reads take a file lock; writes are atomic.
package userstore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
)

// ErrNotFound is returned by operations on a username that doesn't exist.
var ErrNotFound = errors.New("user not found")

// ErrAlreadyExists is returned by Create on a username already present.
var ErrAlreadyExists = errors.New("user already exists")

// Store is the sole shared mutable file resource for user accounts
// (spec.md §5): the in-process mutex serializes goroutines in this process,
// the file lock serializes across processes sharing the same file.
type Store struct {
	path string
	mu   sync.Mutex
}

// New constructs a Store backed by the JSON file at path.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) withFileLock(fn func() error) error {
	fl := flock.New(s.path + ".lock")

	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock user file: %w", err)
	}
	defer fl.Unlock()

	return fn()
}

// storedUser is the on-disk shape of one map value: username lives in the
// map key, not duplicated into the value, per spec.md §6's user-file
// contract.
type storedUser struct {
	PasswordHash string          `json:"password"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Role         domain.UserRole `json:"role"`
}

func (s *Store) readLocked() (map[string]domain.User, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]domain.User{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read user file: %w", err)
	}

	if len(data) == 0 {
		return map[string]domain.User{}, nil
	}

	raw := make(map[string]storedUser)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse user file: %w", err)
	}

	users := make(map[string]domain.User, len(raw))
	for username, su := range raw {
		users[username] = domain.User{
			Username:     username,
			PasswordHash: su.PasswordHash,
			Name:         su.Name,
			Email:        su.Email,
			Role:         su.Role,
		}
	}

	return users, nil
}

// writeLocked serializes users with sorted keys (encoding/json already
// sorts map keys) and replaces the file atomically.
func (s *Store) writeLocked(users map[string]domain.User) error {
	raw := make(map[string]storedUser, len(users))
	for username, u := range users {
		raw[username] = storedUser{PasswordHash: u.PasswordHash, Name: u.Name, Email: u.Email, Role: u.Role}
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal user file: %w", err)
	}

	if err := renameio.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write user file: %w", err)
	}

	return nil
}

// Get returns one user, or nil if not found.
func (s *Store) Get(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out *domain.User

	err := s.withFileLock(func() error {
		users, err := s.readLocked()
		if err != nil {
			return err
		}

		if u, ok := users[username]; ok {
			out = &u
		}

		return nil
	})

	return out, err
}

// List returns every user, sorted by username.
func (s *Store) List(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.User

	err := s.withFileLock(func() error {
		users, err := s.readLocked()
		if err != nil {
			return err
		}

		for _, u := range users {
			out = append(out, u)
		}

		sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })

		return nil
	})

	return out, err
}

// Create adds a new user, failing if the username is taken.
func (s *Store) Create(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(func() error {
		users, err := s.readLocked()
		if err != nil {
			return err
		}

		if _, exists := users[u.Username]; exists {
			return ErrAlreadyExists
		}

		users[u.Username] = u

		return s.writeLocked(users)
	})
}

// Delete removes a user.
func (s *Store) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(func() error {
		users, err := s.readLocked()
		if err != nil {
			return err
		}

		if _, exists := users[username]; !exists {
			return ErrNotFound
		}

		delete(users, username)

		return s.writeLocked(users)
	})
}

// SetPasswordHash overwrites a user's stored password hash. Satisfies
// internal/auth.UserStore.
func (s *Store) SetPasswordHash(_ context.Context, username, hash string) error {
	return s.update(username, func(u *domain.User) { u.PasswordHash = hash })
}

// SetUsername renames a user, failing if the new name is already taken.
func (s *Store) SetUsername(_ context.Context, oldUsername, newUsername string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(func() error {
		users, err := s.readLocked()
		if err != nil {
			return err
		}

		u, ok := users[oldUsername]
		if !ok {
			return ErrNotFound
		}

		if _, taken := users[newUsername]; taken {
			return ErrAlreadyExists
		}

		delete(users, oldUsername)
		u.Username = newUsername
		users[newUsername] = u

		return s.writeLocked(users)
	})
}

// SetRole updates a user's role.
func (s *Store) SetRole(_ context.Context, username string, role domain.UserRole) error {
	return s.update(username, func(u *domain.User) { u.Role = role })
}

// SetProfile updates a user's display name and email.
func (s *Store) SetProfile(_ context.Context, username, name, email string) error {
	return s.update(username, func(u *domain.User) { u.Name = name; u.Email = email })
}

func (s *Store) update(username string, mutate func(*domain.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(func() error {
		users, err := s.readLocked()
		if err != nil {
			return err
		}

		u, ok := users[username]
		if !ok {
			return ErrNotFound
		}

		mutate(&u)
		users[username] = u

		return s.writeLocked(users)
	})
}

// BulkDelete removes every listed username, ignoring ones already absent.
func (s *Store) BulkDelete(_ context.Context, usernames []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(func() error {
		users, err := s.readLocked()
		if err != nil {
			return err
		}

		for _, name := range usernames {
			delete(users, name)
		}

		return s.writeLocked(users)
	})
}

// GeneratedUser is a freshly created account's plaintext credential, returned
// once so the caller can hand it to an operator.
type GeneratedUser struct {
	Username string
	Password string
}

// BulkRandomCreate creates n users with random usernames and passwords,
// returning their plaintext passwords (the only time they're observable).
func (s *Store) BulkRandomCreate(_ context.Context, n int, hash func(string) (string, error)) ([]GeneratedUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []GeneratedUser

	err := s.withFileLock(func() error {
		users, err := s.readLocked()
		if err != nil {
			return err
		}

		for i := 0; i < n; i++ {
			var username string

			for {
				username = "user_" + randomToken(8)
				if _, exists := users[username]; !exists {
					break
				}
			}

			password := randomToken(16)

			hashed, err := hash(password)
			if err != nil {
				return fmt.Errorf("hash generated password: %w", err)
			}

			users[username] = domain.User{
				Username:     username,
				PasswordHash: hashed,
				Role:         domain.RoleUser,
			}

			out = append(out, GeneratedUser{Username: username, Password: password})
		}

		return s.writeLocked(users)
	})

	return out, err
}

// BulkResetPassword assigns a fresh random password to each listed user,
// returning the plaintext passwords.
func (s *Store) BulkResetPassword(_ context.Context, usernames []string, hash func(string) (string, error)) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string)

	err := s.withFileLock(func() error {
		users, err := s.readLocked()
		if err != nil {
			return err
		}

		for _, username := range usernames {
			u, ok := users[username]
			if !ok {
				continue
			}

			password := randomToken(16)

			hashed, err := hash(password)
			if err != nil {
				return fmt.Errorf("hash reset password: %w", err)
			}

			u.PasswordHash = hashed
			users[username] = u
			out[username] = password
		}

		return s.writeLocked(users)
	})

	return out, err
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomToken(n int) string {
	b := make([]byte, n)

	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(tokenAlphabet))))
		if err != nil {
			panic(err)
		}

		b[i] = tokenAlphabet[idx.Int64()]
	}

	return string(b)
}
