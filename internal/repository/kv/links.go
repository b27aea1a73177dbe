package kv

import (
	"context"

	"github.com/and161185/stash/internal/model"
	"github.com/and161185/stash/internal/repository"
	"github.com/and161185/stash/internal/store"
)

// LinkRepo stores each collection under store.LinksKey(userID).
type LinkRepo struct{ s store.Store }

var _ repository.LinkRepository = (*LinkRepo)(nil)

// NewLinkRepo constructs a link repository.
func NewLinkRepo(s store.Store) *LinkRepo { return &LinkRepo{s: s} }

func (r *LinkRepo) List(ctx context.Context, userID string) ([]model.Link, error) {
	var links []model.Link
	if _, err := r.s.Read(ctx, store.LinksKey(userID), &links); err != nil {
		return nil, err
	}
	if links == nil {
		links = []model.Link{}
	}
	return links, nil
}

func (r *LinkRepo) Save(ctx context.Context, userID string, links []model.Link) error {
	if links == nil {
		links = []model.Link{}
	}
	return r.s.Write(ctx, store.LinksKey(userID), links)
}
