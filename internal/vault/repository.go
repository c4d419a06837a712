package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/varlink/internal/domain"
	"github.com/MrSnakeDoc/varlink/internal/logger"
	"github.com/MrSnakeDoc/varlink/internal/store"
)

// Repository turns raw store records into links and back.
type Repository struct {
	store  store.Store
	logger logger.Logger
	now    func() time.Time
}

// NewRepository creates a repository over s. now defaults to time.Now.
func NewRepository(s store.Store, log logger.Logger, now func() time.Time) *Repository {
	if now == nil {
		now = time.Now
	}
	return &Repository{
		store:  s,
		logger: log,
		now:    now,
	}
}

// Subscribe delivers the sorted collection now and after every change.
func (r *Repository) Subscribe(ctx context.Context, fn func([]domain.Link)) (store.Subscription, error) {
	return r.store.Subscribe(ctx, func(snap domain.Snapshot) {
		fn(r.sorted(snap))
	})
}

// sorted keeps partially decoded links and only warns about them.
func (r *Repository) sorted(snap domain.Snapshot) []domain.Link {
	links, err := domain.ListAndSort(snap)
	if err != nil {
		r.logger.Warn("malformed link fields ignored", logger.Error(err))
	}
	return links
}

// List reads the collection once, in display order.
func (r *Repository) List(ctx context.Context) ([]domain.Link, error) {
	snap, err := r.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return r.sorted(snap), nil
}

// Save creates a link, or overwrites name/url/variables of existingID.
// A new link is appended after the current last one. The max-order read
// and the create are not atomic: two concurrent creates may share an order.
func (r *Repository) Save(ctx context.Context, in domain.LinkInput, existingID string) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	if existingID != "" {
		if err := r.store.Update(ctx, existingID, in.Record()); err != nil {
			r.logger.Warn("failed to update link",
				logger.String("link_id", existingID),
				logger.Error(err))
			return "", fmt.Errorf("failed to update link %s: %w", existingID, err)
		}
		r.logger.Info("link updated", logger.String("link_id", existingID))
		return existingID, nil
	}

	snap, err := r.store.GetAll(ctx)
	if err != nil {
		r.logger.Warn("failed to read links before create", logger.Error(err))
		return "", fmt.Errorf("failed to read links: %w", err)
	}

	rec := in.Record()
	rec[domain.FieldCreatedAt] = r.now().UnixMilli()
	rec[domain.FieldOrder] = domain.NextOrder(snap)

	id, err := r.store.Create(ctx, rec)
	if err != nil {
		r.logger.Warn("failed to create link", logger.Error(err))
		return "", fmt.Errorf("failed to create link: %w", err)
	}

	r.logger.Info("link created",
		logger.String("link_id", id),
		logger.String("name", in.Name))
	return id, nil
}

// Delete removes a link and reports whether the store accepted it.
func (r *Repository) Delete(ctx context.Context, id string) bool {
	if err := r.store.Delete(ctx, id); err != nil {
		r.logger.Error("error deleting link",
			logger.String("link_id", id),
			logger.Error(err))
		return false
	}
	r.logger.Info("link deleted", logger.String("link_id", id))
	return true
}
