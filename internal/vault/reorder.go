package vault

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/varlink/internal/domain"
	"github.com/MrSnakeDoc/varlink/internal/logger"
	"github.com/MrSnakeDoc/varlink/internal/store"
)

// Reorderer persists drag-and-drop moves.
type Reorderer struct {
	store  store.Store
	logger logger.Logger
}

// NewReorderer creates a reorderer writing to s.
func NewReorderer(s store.Store, log logger.Logger) *Reorderer {
	return &Reorderer{store: s, logger: log}
}

// Reorder moves draggedID to targetID's position in displayed.
//
// apply receives the new sequence before anything is written. Then every
// link gets its new index as order, all writes in flight at once. Failed
// writes are logged and not rolled back: the next snapshot from the store
// is the only reconciliation. moved is false (and nothing is written) when
// the move is a no-op.
func (r *Reorderer) Reorder(
	ctx context.Context,
	displayed []domain.Link,
	draggedID, targetID string,
	apply func([]domain.Link),
) (links []domain.Link, moved bool, err error) {
	next, ok := domain.Move(displayed, draggedID, targetID)
	if !ok {
		return displayed, false, nil
	}

	for i := range next {
		next[i].Order = int64(i)
	}

	if apply != nil {
		apply(next)
	}

	var g errgroup.Group
	for i, link := range next {
		i, link := i, link
		g.Go(func() error {
			if err := r.store.Update(ctx, link.ID, domain.Record{domain.FieldOrder: int64(i)}); err != nil {
				r.logger.Warn("failed to persist link order",
					logger.String("link_id", link.ID),
					logger.Int("order", i),
					logger.Error(err))
				return err
			}
			return nil
		})
	}
	err = g.Wait()

	r.logger.Debug("links reordered",
		logger.String("dragged", draggedID),
		logger.String("target", targetID),
		logger.Int("updates", len(next)),
		logger.Bool("complete", err == nil))

	return next, true, err
}
