// Package auth implements credential hashing, server-side sessions and the
// login gate. Handlers never touch password hashes or the session store
// directly; they go through Service.
package auth

import (
	"context"
	"errors"

	"github.com/nordwell/studio-api/internal/model"
	"github.com/nordwell/studio-api/internal/repository"
)

// Login failure modes. All three surface as HTTP 401; the distinction is
// kept for logging and tests.
var (
	ErrUnknownUser    = errors.New("unknown user")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrBlocked        = errors.New("account is blocked")
)

// UserSource is the slice of the user repository the gate needs.
type UserSource interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Service ties the credential verifier to the session store.
type Service struct {
	users    UserSource
	sessions Store
}

func NewService(users UserSource, sessions Store) *Service {
	return &Service{users: users, sessions: sessions}
}

// Login verifies the credentials, refuses blocked accounts and establishes
// a session. The returned session id goes into an HttpOnly cookie.
func (s *Service) Login(ctx context.Context, username, password string) (model.User, string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, "", ErrUnknownUser
	}
	if err != nil {
		return model.User{}, "", err
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return model.User{}, "", ErrBadCredentials
	}
	if u.IsBlocked {
		return model.User{}, "", ErrBlocked
	}
	sid, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return model.User{}, "", err
	}
	return u, sid, nil
}

// CurrentUser resolves a session id to its user. It returns (nil, nil)
// rather than an error when the session is unknown, the user no longer
// exists, or the user has been blocked since login. The block flag is
// re-read on every call so an administrative block takes effect on the
// next request, not at the next login.
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}
	uid, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if u.IsBlocked {
		return nil, nil
	}
	return &u, nil
}

// Logout invalidates the session immediately.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}
