// Package store implements the persistent key/value store of JSON values
// shared by the identity and link services.
package store

import (
	"context"
	"encoding/json"

	"github.com/and161185/stash/internal/errs"
)

// Key namespace kept compatible with data written by earlier clients.
const (
	UsersKey       = "stash_users"
	SessionKey     = "stash_session"
	LinksKeyPrefix = "stash_links_"
)

// LinksKey returns the key holding the link collection of userID.
func LinksKey(userID string) string { return LinksKeyPrefix + userID }

// Backend is a byte-level key/value store.
type Backend interface {
	// Get returns (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites the value of key in a single statement.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Store maps named keys to JSON-serializable values.
type Store interface {
	// Read decodes the value of key into dst. found is false when key is absent.
	Read(ctx context.Context, key string, dst any) (found bool, err error)
	// Write encodes value and overwrites key.
	Write(ctx context.Context, key string, value any) error
	// Delete removes key; idempotent.
	Delete(ctx context.Context, key string) error
}

// JSONStore implements Store on top of a Backend.
type JSONStore struct{ b Backend }

var _ Store = (*JSONStore)(nil)

// New constructs a JSONStore over b.
func New(b Backend) *JSONStore { return &JSONStore{b: b} }

// Read implements Store. Backend failures and undecodable values are StorageErrors.
func (s *JSONStore) Read(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.b.Get(ctx, key)
	if err != nil {
		return false, &errs.StorageError{Op: "read", Key: key, Err: err}
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, &errs.StorageError{Op: "read", Key: key, Err: err}
	}
	return true, nil
}

// Write implements Store. Encoding happens before the backend is touched,
// so a failed encode leaves the previous value intact.
func (s *JSONStore) Write(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &errs.StorageError{Op: "write", Key: key, Err: err}
	}
	if err := s.b.Set(ctx, key, raw); err != nil {
		return &errs.StorageError{Op: "write", Key: key, Err: err}
	}
	return nil
}

// Delete implements Store.
func (s *JSONStore) Delete(ctx context.Context, key string) error {
	if err := s.b.Delete(ctx, key); err != nil {
		return &errs.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Close closes the underlying backend.
func (s *JSONStore) Close() error { return s.b.Close() }
