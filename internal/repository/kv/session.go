package kv

import (
	"context"

	"github.com/and161185/stash/internal/model"
	"github.com/and161185/stash/internal/repository"
	"github.com/and161185/stash/internal/store"
)

// SessionRepo stores the active user under store.SessionKey.
type SessionRepo struct{ s store.Store }

var _ repository.SessionRepository = (*SessionRepo)(nil)

// NewSessionRepo constructs a session repository.
func NewSessionRepo(s store.Store) *SessionRepo { return &SessionRepo{s: s} }

func (r *SessionRepo) Get(ctx context.Context) (*model.User, error) {
	var u model.User
	found, err := r.s.Read(ctx, store.SessionKey, &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (r *SessionRepo) Set(ctx context.Context, u model.User) error {
	return r.s.Write(ctx, store.SessionKey, u)
}

func (r *SessionRepo) Clear(ctx context.Context) error {
	return r.s.Delete(ctx, store.SessionKey)
}
