// Package service contains application services for identity and link collections.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/stash/internal/crypto"
	"github.com/and161185/stash/internal/errs"
	"github.com/and161185/stash/internal/model"
	"github.com/and161185/stash/internal/repository"
)

// AuthService defines account lifecycle and session operations.
type AuthService interface {
	// SignUp creates an account with a salted one-way verifier and signs it in.
	SignUp(ctx context.Context, email, password string) (model.User, error)
	// SignIn verifies credentials and makes the account the active session.
	SignIn(ctx context.Context, email, password string) (model.User, error)
	// SignOut clears the active session. It never fails.
	SignOut(ctx context.Context)
	// CurrentSession restores the persisted session; nil when there is none.
	CurrentSession(ctx context.Context) (*model.User, error)
	// Session returns the in-memory session; nil when signed out.
	Session() *model.User
}

type AuthServiceImpl struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	latency  Latency
	log      *zap.Logger

	mu      sync.RWMutex
	current *model.User
}

var _ AuthService = (*AuthServiceImpl)(nil)

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, latency Latency, log *zap.Logger) *AuthServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{users: users, sessions: sessions, latency: latency, log: log}
}

// SignUp registers email. The credential store is left untouched on ErrDuplicateAccount.
func (s *AuthServiceImpl) SignUp(ctx context.Context, email, password string) (model.User, error) {
	if email == "" || password == "" {
		return model.User{}, fmt.Errorf("%w: empty email/password", errs.ErrInvalidInput)
	}
	if err := wait(ctx, s.latency.Auth); err != nil {
		return model.User{}, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return model.User{}, errs.ErrDuplicateAccount
	} else if !errors.Is(err, errs.ErrNotFound) {
		return model.User{}, err
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return model.User{}, err
	}
	verifier, err := pkgcrypto.NewVerifier(password)
	if err != nil {
		return model.User{}, err
	}
	c := model.Credential{Email: email, PasswordHash: verifier, ID: uid.String()}
	if err := s.users.Create(ctx, c); err != nil {
		return model.User{}, err
	}

	u := c.User()
	if err := s.establish(ctx, u); err != nil {
		return model.User{}, err
	}
	s.log.Info("signed up", zap.String("user_id", u.ID))
	return u, nil
}

// SignIn authenticates email/password. Unknown email and wrong password are
// indistinguishable to the caller; the session is unchanged on failure.
func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password string) (model.User, error) {
	if err := wait(ctx, s.latency.Auth); err != nil {
		return model.User{}, err
	}
	c, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.User{}, errs.ErrInvalidCredentials
		}
		return model.User{}, err
	}

	legacy := pkgcrypto.IsLegacyVerifier(c.PasswordHash)
	switch {
	case legacy && pkgcrypto.CheckLegacyVerifier(password, c.PasswordHash):
	case !legacy && pkgcrypto.CheckVerifier(password, c.PasswordHash):
	default:
		s.log.Debug("sign-in rejected", zap.String("email", email))
		return model.User{}, errs.ErrInvalidCredentials
	}

	if legacy || c.ID == "" {
		if c, err = s.upgrade(ctx, c, password, legacy); err != nil {
			return model.User{}, err
		}
	}

	u := c.User()
	if err := s.establish(ctx, u); err != nil {
		return model.User{}, err
	}
	s.log.Info("signed in", zap.String("user_id", u.ID))
	return u, nil
}

// upgrade rewrites records created before verifiers were hashed or ids were stored.
func (s *AuthServiceImpl) upgrade(ctx context.Context, c model.Credential, password string, rehash bool) (model.Credential, error) {
	if rehash {
		v, err := pkgcrypto.NewVerifier(password)
		if err != nil {
			return model.Credential{}, err
		}
		c.PasswordHash = v
	}
	if c.ID == "" {
		uid, err := uuid.NewV4()
		if err != nil {
			return model.Credential{}, err
		}
		c.ID = uid.String()
	}
	if err := s.users.Update(ctx, c); err != nil {
		return model.Credential{}, err
	}
	s.log.Info("credential record upgraded", zap.String("user_id", c.ID), zap.Bool("rehashed", rehash))
	return c, nil
}

func (s *AuthServiceImpl) establish(ctx context.Context, u model.User) error {
	if err := s.sessions.Set(ctx, u); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = &u
	s.mu.Unlock()
	return nil
}

// SignOut clears the session. A failed store delete is logged, not returned.
func (s *AuthServiceImpl) SignOut(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	if err := s.sessions.Clear(ctx); err != nil {
		s.log.Warn("clear persisted session", zap.Error(err))
	}
}

// CurrentSession restores the persisted session. A session pointing at a user
// missing from the credential store is discarded.
func (s *AuthServiceImpl) CurrentSession(ctx context.Context) (*model.User, error) {
	if err := wait(ctx, s.latency.Session); err != nil {
		return nil, err
	}
	u, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	c, err := s.users.GetByEmail(ctx, u.Email)
	switch {
	case errors.Is(err, errs.ErrNotFound) || (err == nil && c.ID != u.ID):
		s.log.Warn("discarding stale session", zap.String("user_id", u.ID))
		if cerr := s.sessions.Clear(ctx); cerr != nil {
			s.log.Warn("clear persisted session", zap.Error(cerr))
		}
		return nil, nil
	case err != nil:
		return nil, err
	}

	s.mu.Lock()
	s.current = u
	s.mu.Unlock()
	return cloneUser(u), nil
}

// Session returns a copy of the active user, or nil.
func (s *AuthServiceImpl) Session() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.current)
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
