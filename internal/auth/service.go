// Package auth implements the demo login. There is exactly one account,
// configured at startup; a successful login stores the session record in
// the key-value store where the rest of the app checks it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/tripwise/internal/kv"
	"github.com/MrJamesThe3rd/tripwise/internal/kv/memory"
)

var ErrInvalidCredentials = errors.New("invalid email/username or password")

// Credentials is the single demo account.
type Credentials struct {
	Email    string
	Username string
	Password string
}

// User is the stored session record.
type User struct {
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	LoggedIn   bool      `json:"loggedIn"`
	LoginTime  time.Time `json:"loginTime"`
	RememberMe bool      `json:"rememberMe"`
	SessionID  string    `json:"sessionId"`
}

type Service struct {
	store    kv.Store
	mirror   kv.Store
	email    string
	username string
	hash     []byte
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMirror replaces the process-scoped store used for remember-me.
func WithMirror(mirror kv.Store) Option {
	return func(s *Service) {
		s.mirror = mirror
	}
}

func NewService(store kv.Store, creds Credentials, opts ...Option) (*Service, error) {
	if creds.Password == "" {
		return nil, errors.New("demo password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing demo password: %w", err)
	}

	s := &Service{
		store:    store,
		mirror:   memory.New(),
		email:    strings.ToLower(creds.Email),
		username: strings.ToLower(creds.Username),
		hash:     hash,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Login accepts either the email or the username, case-insensitively.
func (s *Service) Login(ctx context.Context, identifier, password string, rememberMe bool) (*User, error) {
	id := strings.ToLower(strings.TrimSpace(identifier))
	if id == "" || (id != s.email && id != s.username) {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("verifying password: %w", err)
	}

	user := &User{
		Email:      s.email,
		Username:   s.username,
		LoggedIn:   true,
		LoginTime:  s.now().UTC(),
		RememberMe: rememberMe,
		SessionID:  uuid.NewString(),
	}

	if err := kv.SetJSON(ctx, s.store, kv.KeyUser, user); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	if rememberMe {
		if err := kv.SetJSON(ctx, s.mirror, kv.KeyUser, user); err != nil {
			return nil, fmt.Errorf("saving remembered session: %w", err)
		}
	}

	slog.Info("user logged in", "username", user.Username, "remember_me", rememberMe)

	return user, nil
}

// Logout clears both session copies.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx, kv.KeyUser); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	if err := s.mirror.Remove(ctx, kv.KeyUser); err != nil {
		return fmt.Errorf("clearing remembered session: %w", err)
	}

	return nil
}

// CurrentUser returns the active session, falling back to the remembered one.
func (s *Service) CurrentUser(ctx context.Context) (*User, bool, error) {
	for _, store := range []kv.Store{s.store, s.mirror} {
		var user User

		ok, err := kv.GetJSON(ctx, store, kv.KeyUser, &user)
		if err != nil {
			return nil, false, err
		}

		if ok && user.LoggedIn {
			return &user, true, nil
		}
	}

	return nil, false, nil
}

func (s *Service) IsAuthenticated(ctx context.Context) bool {
	_, ok, err := s.CurrentUser(ctx)
	if err != nil {
		slog.Error("failed to read session", "error", err)
		return false
	}

	return ok
}
