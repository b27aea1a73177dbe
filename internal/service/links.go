package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/stash/internal/errs"
	"github.com/and161185/stash/internal/model"
	"github.com/and161185/stash/internal/repository"
)

// Annotator turns a URL into title/summary/tags.
type Annotator interface {
	Annotate(ctx context.Context, url string) (model.Annotation, error)
}

// LinkService maintains signed-in users' collections and keeps the store in sync.
type LinkService interface {
	// Load reads the persisted collection, newest first.
	Load(ctx context.Context, userID string) ([]model.Link, error)
	// Add annotates url and prepends the new link; errs.ErrDuplicateLink if already stashed.
	Add(ctx context.Context, userID, url string) (model.Link, error)
	// Remove deletes the link with linkID; unknown ids are a no-op.
	Remove(ctx context.Context, userID, linkID string) error
	// Links returns the in-memory collection.
	Links(userID string) []model.Link
}

// collection is one user's in-memory stash. mu serializes every mutation and
// persist of the collection; pending holds urls whose annotation is in flight.
type collection struct {
	mu      sync.Mutex
	loaded  bool
	links   []model.Link
	pending map[string]struct{}
}

type LinkServiceImpl struct {
	repo      repository.LinkRepository
	annotator Annotator
	latency   Latency
	log       *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	cols map[string]*collection
}

var _ LinkService = (*LinkServiceImpl)(nil)

// NewLinkService constructs LinkService with required dependencies.
func NewLinkService(repo repository.LinkRepository, annotator Annotator, latency Latency, log *zap.Logger) *LinkServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &LinkServiceImpl{
		repo:      repo,
		annotator: annotator,
		latency:   latency,
		log:       log,
		now:       time.Now,
		cols:      map[string]*collection{},
	}
}

func (s *LinkServiceImpl) collection(userID string) *collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cols[userID]
	if !ok {
		c = &collection{pending: map[string]struct{}{}}
		s.cols[userID] = c
	}
	return c
}

// load replaces the in-memory collection; c.mu must be held.
func (s *LinkServiceImpl) load(ctx context.Context, c *collection, userID string) error {
	if err := wait(ctx, s.latency.Load); err != nil {
		return err
	}
	links, err := s.repo.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrLoad, err)
	}
	c.links = links
	c.loaded = true
	return nil
}

// persist saves next and only then exposes it; c.mu must be held.
func (s *LinkServiceImpl) persist(ctx context.Context, c *collection, userID string, next []model.Link) error {
	if err := wait(ctx, s.latency.Save); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, userID, next); err != nil {
		return err
	}
	c.links = next
	return nil
}

// Load reads userID's collection from the store.
func (s *LinkServiceImpl) Load(ctx context.Context, userID string) ([]model.Link, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrInvalidInput)
	}
	c := s.collection(userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := s.load(ctx, c, userID); err != nil {
		return nil, err
	}
	return cloneLinks(c.links), nil
}

// Add stashes rawURL. The duplicate check happens before the annotator is called;
// annotation runs without holding the collection lock.
func (s *LinkServiceImpl) Add(ctx context.Context, userID, rawURL string) (model.Link, error) {
	if userID == "" {
		return model.Link{}, fmt.Errorf("%w: empty userID", errs.ErrInvalidInput)
	}
	u, err := ValidateURL(rawURL)
	if err != nil {
		return model.Link{}, err
	}

	c := s.collection(userID)
	c.mu.Lock()
	if !c.loaded {
		if err := s.load(ctx, c, userID); err != nil {
			c.mu.Unlock()
			return model.Link{}, err
		}
	}
	if _, inFlight := c.pending[u]; inFlight || contains(c.links, u) {
		c.mu.Unlock()
		return model.Link{}, errs.ErrDuplicateLink
	}
	c.pending[u] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, u)
		c.mu.Unlock()
	}()

	ann, err := s.annotate(ctx, u)
	if err != nil {
		s.log.Warn("annotation failed", zap.String("url", u), zap.Error(err))
		return model.Link{}, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return model.Link{}, err
	}
	link := model.NewLink(id.String(), u, ann, s.now())

	c.mu.Lock()
	defer c.mu.Unlock()
	if contains(c.links, u) {
		return model.Link{}, errs.ErrDuplicateLink
	}
	next := make([]model.Link, 0, len(c.links)+1)
	next = append(next, link)
	next = append(next, c.links...)
	if err := s.persist(ctx, c, userID, next); err != nil {
		return model.Link{}, err
	}
	s.log.Info("link stashed", zap.String("user_id", userID), zap.String("link_id", link.ID))
	return link, nil
}

// annotate calls the annotator and enforces that every link field can be filled.
func (s *LinkServiceImpl) annotate(ctx context.Context, u string) (model.Annotation, error) {
	ann, err := s.annotator.Annotate(ctx, u)
	if err != nil {
		if errors.Is(err, errs.ErrMalformedAnnotation) || errors.Is(err, errs.ErrAnnotationUnavailable) {
			return model.Annotation{}, err
		}
		return model.Annotation{}, fmt.Errorf("%w: %w", errs.ErrAnnotationUnavailable, err)
	}
	if ann.Title == "" || ann.Summary == "" || ann.Tags == nil {
		return model.Annotation{}, errs.ErrMalformedAnnotation
	}
	return ann, nil
}

// Remove deletes linkID from userID's collection and persists the result.
func (s *LinkServiceImpl) Remove(ctx context.Context, userID, linkID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty userID", errs.ErrInvalidInput)
	}
	c := s.collection(userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		if err := s.load(ctx, c, userID); err != nil {
			return err
		}
	}

	next := make([]model.Link, 0, len(c.links))
	for _, l := range c.links {
		if l.ID != linkID {
			next = append(next, l)
		}
	}
	if len(next) == len(c.links) {
		return nil
	}
	if err := s.persist(ctx, c, userID, next); err != nil {
		return err
	}
	s.log.Info("link removed", zap.String("user_id", userID), zap.String("link_id", linkID))
	return nil
}

// Links returns a copy of the in-memory collection (empty if never loaded).
func (s *LinkServiceImpl) Links(userID string) []model.Link {
	c := s.collection(userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneLinks(c.links)
}

// ValidateURL trims raw and requires an absolute http(s) URL with a host.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", errs.ErrInvalidInput)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: not an http(s) url: %q", errs.ErrInvalidInput, raw)
	}
	return raw, nil
}

func contains(links []model.Link, u string) bool {
	for _, l := range links {
		if l.URL == u {
			return true
		}
	}
	return false
}

func cloneLinks(links []model.Link) []model.Link {
	out := make([]model.Link, len(links))
	for i, l := range links {
		l.Tags = model.CopyTags(l.Tags)
		out[i] = l
	}
	return out
}
