// Package kv implements repository interfaces on top of the JSON key/value store.
package kv

import (
	"context"
	"fmt"

	"github.com/and161185/stash/internal/errs"
	"github.com/and161185/stash/internal/model"
	"github.com/and161185/stash/internal/repository"
	"github.com/and161185/stash/internal/store"
)

// users is the stored users map, keyed by email.
type users map[string]model.Credential

// UserRepo keeps all credential records in one value under store.UsersKey.
type UserRepo struct{ s store.Store }

var _ repository.UserRepository = (*UserRepo)(nil)

// NewUserRepo constructs a user repository.
func NewUserRepo(s store.Store) *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) load(ctx context.Context) (users, error) {
	m := users{}
	if _, err := r.s.Read(ctx, store.UsersKey, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = users{}
	}
	return m, nil
}

// Create inserts a record if the email is free.
func (r *UserRepo) Create(ctx context.Context, c model.Credential) error {
	m, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, exists := m[c.Email]; exists {
		return errs.ErrDuplicateAccount
	}
	m[c.Email] = c
	return r.s.Write(ctx, store.UsersKey, m)
}

// GetByEmail loads a record by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.Credential, error) {
	m, err := r.load(ctx)
	if err != nil {
		return model.Credential{}, err
	}
	c, ok := m[email]
	if !ok {
		return model.Credential{}, errs.ErrNotFound
	}
	return c, nil
}

// Update replaces an existing record.
func (r *UserRepo) Update(ctx context.Context, c model.Credential) error {
	m, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := m[c.Email]; !ok {
		return fmt.Errorf("update %s: %w", c.Email, errs.ErrNotFound)
	}
	m[c.Email] = c
	return r.s.Write(ctx, store.UsersKey, m)
}
