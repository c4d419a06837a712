package store

import (
	"context"

	"github.com/MrSnakeDoc/varlink/internal/domain"
)

// Store is the capability set required of a link storage backend.
// The remote store is the single source of truth; callers rebuild their
// local view from the snapshots delivered to Subscribe.
type Store interface {
	// Subscribe calls fn with the full collection once immediately and
	// again after every change, until the subscription is closed or ctx
	// is done.
	Subscribe(ctx context.Context, fn func(domain.Snapshot)) (Subscription, error)

	// GetAll reads the full collection once.
	GetAll(ctx context.Context) (domain.Snapshot, error)

	// Create stores rec under a fresh id and returns that id.
	Create(ctx context.Context, rec domain.Record) (string, error)

	// Update merges fields into the record at id.
	// A missing id is a no-op, not an error.
	Update(ctx context.Context, id string, fields domain.Record) error

	// Delete removes the record at id.
	Delete(ctx context.Context, id string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// Subscription is a live feed handle.
type Subscription interface {
	Close() error
}

// SubscriptionFunc adapts a plain function to Subscription.
type SubscriptionFunc func() error

func (f SubscriptionFunc) Close() error { return f() }
