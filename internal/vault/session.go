package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/varlink/internal/domain"
	"github.com/MrSnakeDoc/varlink/internal/logger"
	"github.com/MrSnakeDoc/varlink/internal/store"
)

// Session is the live view of the vault: a local cache of the sorted
// collection, rebuilt from every store snapshot and optimistically
// replaced by reorders until the next snapshot arrives.
type Session struct {
	repo      *Repository
	reorderer *Reorderer
	logger    logger.Logger

	// replaceMu keeps cache writes and listener deliveries in the same order
	replaceMu sync.Mutex

	mu      sync.RWMutex
	links   []domain.Link
	loading bool
	sub     store.Subscription

	listenersMu  sync.Mutex
	listeners    map[int]func([]domain.Link)
	nextListener int
}

// NewSession creates a session. Call Start to open the live feed.
func NewSession(repo *Repository, reorderer *Reorderer, log logger.Logger) *Session {
	return &Session{
		repo:      repo,
		reorderer: reorderer,
		logger:    log,
		loading:   true,
		listeners: make(map[int]func([]domain.Link)),
	}
}

// Start subscribes to the store. The first snapshot is applied before
// Start returns.
func (s *Session) Start(ctx context.Context) error {
	sub, err := s.repo.Subscribe(ctx, s.replace)
	if err != nil {
		return fmt.Errorf("failed to open live feed: %w", err)
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	s.logger.Info("live feed opened", logger.Int("links", len(s.Links())))
	return nil
}

// Close stops the live feed.
func (s *Session) Close() error {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub == nil {
		return nil
	}
	return sub.Close()
}

// Links returns the cached collection in display order.
func (s *Session) Links() []domain.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Link(nil), s.links...)
}

// Loading is true until the first snapshot has been received.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Visible returns the cached links matching query.
func (s *Session) Visible(query string) []domain.Link {
	return domain.Filter(s.Links(), query)
}

// Get looks a link up in the cache.
func (s *Session) Get(id string) (domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.links {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Link{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Save creates or edits a link. The cache is refreshed by the live feed.
func (s *Session) Save(ctx context.Context, in domain.LinkInput, existingID string) (string, error) {
	return s.repo.Save(ctx, in, existingID)
}

// Delete removes a link. On failure the cache is left untouched.
func (s *Session) Delete(ctx context.Context, id string) error {
	if !s.repo.Delete(ctx, id) {
		return fmt.Errorf("%w: %s", ErrDeleteFailed, id)
	}
	return nil
}

// Reorder drags draggedID onto targetID. It is refused while query is
// non-empty. Persistence failures are not reported to the caller.
func (s *Session) Reorder(ctx context.Context, query, draggedID, targetID string) ([]domain.Link, error) {
	if query != "" {
		return nil, ErrReorderWhileFiltered
	}

	links, _, err := s.reorderer.Reorder(ctx, s.Links(), draggedID, targetID, s.replace)
	if err != nil {
		s.logger.Warn("reorder partially persisted, waiting for live feed", logger.Error(err))
	}
	return links, nil
}

// OnChange registers fn to receive the collection after every cache change.
// The returned func unregisters it.
func (s *Session) OnChange(fn func([]domain.Link)) func() {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Session) replace(links []domain.Link) {
	s.replaceMu.Lock()
	defer s.replaceMu.Unlock()

	s.mu.Lock()
	s.links = append([]domain.Link(nil), links...)
	s.loading = false
	s.mu.Unlock()

	s.listenersMu.Lock()
	fns := make([]func([]domain.Link), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(append([]domain.Link(nil), links...))
	}
}
