// Package session tracks the authenticated user and their bearer token,
// persists both across restarts and exposes the current user reactively.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"expensedash/internal/core"
	"expensedash/internal/gateway"
	"expensedash/internal/log"
	"expensedash/internal/observable"
	"expensedash/internal/storage"
)

// Keys under which the session is persisted. Both are written and removed together.
const (
	TokenKey = "token"
	UserKey  = "user"
)

const (
	registerFallback = "Registration failed. Please try again."
	loginFallback    = "Login failed. Please try again."
)

// ErrInvalidAuthResponse means the server answered without a token or identity.
var ErrInvalidAuthResponse = errors.New("invalid auth response")

// AuthError is a failed login or registration. Message is safe to show the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// Authenticator is the part of the gateway the store needs.
type Authenticator interface {
	Register(ctx context.Context, req core.RegisterRequest) (core.AuthResponse, error)
	Login(ctx context.Context, req core.LoginRequest) (core.AuthResponse, error)
}

type Store struct {
	kv     storage.KeyValue
	auth   Authenticator
	user   *observable.Value[*core.Identity]
	logger *log.Logger
}

// NewStore builds the store and restores any persisted identity.
func NewStore(ctx context.Context, kv storage.KeyValue, auth Authenticator, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Store{
		kv:     kv,
		auth:   auth,
		user:   observable.New[*core.Identity](nil),
		logger: logger.WithComponent(log.ComponentSession),
	}
	if id := s.Restore(ctx); id != nil {
		s.user.Set(id)
	}
	return s
}

// Register validates the input locally and only then calls the API. Invalid
// input returns core.RegisterErrors and leaves the session unchanged.
func (s *Store) Register(ctx context.Context, fullName, email, password string) (core.Identity, error) {
	if fe := core.ValidateRegisterForm(core.RegisterForm{FullName: fullName, Email: email, Password: password}); !fe.Valid() {
		s.logger.DebugContext(ctx, "Registration rejected before sending", log.FieldOperation, log.OpRegister,
			log.FieldErrorType, log.ErrorTypeValidation)
		return core.Identity{}, fe
	}
	fullName, email = strings.TrimSpace(fullName), strings.TrimSpace(email)
	resp, err := s.auth.Register(ctx, core.RegisterRequest{FullName: fullName, EmailAddress: email, Password: password})
	return s.handleAuth(ctx, log.OpRegister, resp, err, registerFallback)
}

func (s *Store) Login(ctx context.Context, email, password string) (core.Identity, error) {
	resp, err := s.auth.Login(ctx, core.LoginRequest{Email: email, Password: password})
	return s.handleAuth(ctx, log.OpLogin, resp, err, loginFallback)
}

func (s *Store) handleAuth(ctx context.Context, op string, resp core.AuthResponse, err error, fallback string) (core.Identity, error) {
	if err != nil {
		msg := gateway.ServerMessage(err)
		if msg == "" {
			msg = fallback
		}
		s.logger.WarnContext(ctx, "Authentication failed", log.NewFields().
			WithOperation(op).WithErrorType(log.ErrorTypeAuth).WithError(err).ToSlice()...)
		return core.Identity{}, &AuthError{Message: msg, Err: err}
	}

	if resp.Failed() {
		msg := resp.Message
		if msg == "" {
			msg = fallback
		}
		s.logger.WarnContext(ctx, "Server flagged authentication as unsuccessful", log.FieldOperation, op, "message", resp.Message)
		return core.Identity{}, &AuthError{Message: msg}
	}

	if resp.Data == nil || resp.Data.Token == "" {
		s.logger.WarnContext(ctx, "Invalid auth response structure", log.NewFields().
			WithOperation(op).WithErrorType(log.ErrorTypeResponse).ToSlice()...)
		return core.Identity{}, ErrInvalidAuthResponse
	}

	id := core.Identity{FullName: resp.Data.FullName, Email: resp.Data.Email}
	blob, err := json.Marshal(id)
	if err != nil {
		return core.Identity{}, fmt.Errorf("marshal identity: %w", err)
	}
	if err := s.kv.SetItems(ctx, map[string]string{TokenKey: resp.Data.Token, UserKey: string(blob)}); err != nil {
		return core.Identity{}, fmt.Errorf("persist session: %w", err)
	}

	s.logger.InfoContext(ctx, "Authenticated", log.FieldOperation, op, log.FieldEmail, id.Email)
	s.user.Set(&id)
	return id, nil
}

// Logout forgets the session locally. The remote API is not contacted.
func (s *Store) Logout(ctx context.Context) {
	if err := s.kv.RemoveItems(ctx, TokenKey, UserKey); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear persisted session", log.NewFields().
			WithOperation(log.OpLogout).WithErrorType(log.ErrorTypeStorage).WithError(err).ToSlice()...)
	}
	s.user.Set(nil)
}

// CurrentUser returns the authenticated identity, or nil.
func (s *Store) CurrentUser() *core.Identity {
	return s.user.Get()
}

// Subscribe calls fn with the current user now and on every change.
func (s *Store) Subscribe(fn func(*core.Identity)) (unsubscribe func()) {
	return s.user.Subscribe(fn)
}

// Restore reads the persisted identity. Absent, placeholder or malformed
// data yields nil; malformed data is logged and otherwise ignored.
func (s *Store) Restore(ctx context.Context) *core.Identity {
	raw, ok, err := s.kv.Get(ctx, UserKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read persisted user", log.NewFields().
			WithOperation(log.OpRestore).WithErrorType(log.ErrorTypeStorage).WithError(err).ToSlice()...)
		return nil
	}
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" || raw == "undefined" || raw == "null" {
		return nil
	}

	var id core.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to parse persisted user", log.NewFields().
			WithOperation(log.OpRestore).WithErrorType(log.ErrorTypeResponse).WithError(err).ToSlice()...)
		return nil
	}
	return &id
}

// Token returns the persisted bearer token, or "" when there is none.
func (s *Store) Token(ctx context.Context) string {
	return StoredToken{KV: s.kv}.Token(ctx)
}

// IsAuthenticated reports whether a non-empty token is held.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	return s.Token(ctx) != ""
}
