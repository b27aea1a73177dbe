// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/stash/internal/model"
)

// UserRepository provides access to credential records keyed by email.
type UserRepository interface {
	// Create inserts a new record; errs.ErrDuplicateAccount if the email is taken.
	Create(ctx context.Context, c model.Credential) error
	// GetByEmail loads a record; errs.ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (model.Credential, error)
	// Update replaces an existing record.
	Update(ctx context.Context, c model.Credential) error
}

// SessionRepository persists the single active session.
type SessionRepository interface {
	// Get returns nil when no session is stored.
	Get(ctx context.Context) (*model.User, error)
	// Set overwrites the stored session.
	Set(ctx context.Context, u model.User) error
	// Clear removes the stored session; idempotent.
	Clear(ctx context.Context) error
}
