// Package model defines domain entities used by services and the store.
package model

import "time"

// User is the identity of a signed-in account. Immutable after sign-up.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Credential is the stored account record, keyed by email in the users map.
type Credential struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"` // argon2id verifier
	ID           string `json:"id,omitempty"` // empty only in records written before ids were stored
}

// User returns the identity described by the credential.
func (c Credential) User() User { return User{ID: c.ID, Email: c.Email} }

// Annotation is the metadata produced for a URL by the annotation service.
type Annotation struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Link is a single stashed, annotated URL.
type Link struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"` // RFC 3339 on the wire
}

// NewLink combines an annotation with identity fields into a Link.
func NewLink(id, url string, a Annotation, createdAt time.Time) Link {
	return Link{
		ID:        id,
		URL:       url,
		Title:     a.Title,
		Summary:   a.Summary,
		Tags:      CopyTags(a.Tags),
		CreatedAt: createdAt.UTC(),
	}
}

// CopyTags returns a copy of tags that is never nil, so links always encode "tags": [].
func CopyTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
