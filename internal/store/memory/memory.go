package memory

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/varlink/internal/domain"
	"github.com/MrSnakeDoc/varlink/internal/store"
)

// Store is an in-process link store. It honours the same live feed
// contract as the Redis store and backs tests and VARLINK_STORE=memory.
type Store struct {
	// notifyMu serializes deliveries so the last snapshot delivered is
	// never older than one delivered before it. Subscribers must not
	// write to the store from their callback.
	notifyMu sync.Mutex

	mu          sync.RWMutex
	records     map[string]domain.Record // ID -> record
	subscribers map[int]func(domain.Snapshot)
	nextSub     int
	newID       func() string
}

// New creates an empty memory store
func New() *Store {
	return &Store{
		records:     make(map[string]domain.Record),
		subscribers: make(map[int]func(domain.Snapshot)),
		newID:       store.NewID,
	}
}

var _ store.Store = (*Store)(nil)

// Subscribe registers fn and delivers the current collection right away
func (s *Store) Subscribe(ctx context.Context, fn func(domain.Snapshot)) (store.Subscription, error) {
	s.notifyMu.Lock()
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	snap := s.snapshotLocked()
	s.mu.Unlock()

	fn(snap)
	s.notifyMu.Unlock()

	var once sync.Once
	unsubscribe := func() error {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
		return nil
	}

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			_ = unsubscribe()
		}()
	}

	return store.SubscriptionFunc(unsubscribe), nil
}

// GetAll returns a copy of every record
func (s *Store) GetAll(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), nil
}

// Create stores rec under a new id
func (s *Store) Create(ctx context.Context, rec domain.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	id := s.newID()
	for {
		if _, taken := s.records[id]; !taken {
			break
		}
		id = s.newID()
	}
	s.records[id] = copyRecord(rec)
	s.mu.Unlock()

	s.notify()
	return id, nil
}

// Update merges fields into an existing record
func (s *Store) Update(ctx context.Context, id string, fields domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	existing, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	for k, v := range copyRecord(fields) {
		existing[k] = v
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Delete removes a record
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	_, ok := s.records[id]
	delete(s.records, id)
	s.mu.Unlock()

	if ok {
		s.notify()
	}
	return nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Count returns the number of stored links
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.RLock()
	snap := s.snapshotLocked()
	fns := make([]func(domain.Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) snapshotLocked() domain.Snapshot {
	snap := make(domain.Snapshot, len(s.records))
	for id, rec := range s.records {
		snap[id] = copyRecord(rec)
	}
	return snap
}

func copyRecord(rec domain.Record) domain.Record {
	out := make(domain.Record, len(rec))
	for k, v := range rec {
		if vs, ok := v.([]string); ok {
			v = append([]string(nil), vs...)
		}
		out[k] = v
	}
	return out
}
