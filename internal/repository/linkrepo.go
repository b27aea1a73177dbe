package repository

import (
	"context"

	"github.com/and161185/stash/internal/model"
)

// LinkRepository persists a user's collection as a single unit.
type LinkRepository interface {
	// List returns the stored collection, newest first; empty when absent.
	List(ctx context.Context, userID string) ([]model.Link, error)
	// Save overwrites the whole collection.
	Save(ctx context.Context, userID string, links []model.Link) error
}
