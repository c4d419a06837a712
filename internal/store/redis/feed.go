package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/varlink/internal/domain"
	"github.com/MrSnakeDoc/varlink/internal/logger"
	"github.com/MrSnakeDoc/varlink/internal/store"
)

// Subscribe listens on the changes channel and re-reads the full collection
// after every notification. The channel is joined before the first read so
// no write between the two is missed.
func (s *Store) Subscribe(ctx context.Context, fn func(domain.Snapshot)) (store.Subscription, error) {
	pubsub := s.client.Subscribe(ctx, ChangesChannel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to link changes: %w", err)
	}

	snap, err := s.GetAll(ctx)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	fn(snap)

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ch := pubsub.Channel()

	go func() {
		defer close(done)
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				// Coalesce bursts (a reorder publishes once per link)
				drain(ch)

				snap, err := s.GetAll(subCtx)
				if err != nil {
					if subCtx.Err() != nil {
						return
					}
					s.logger.Warn("failed to refresh links after change",
						logger.Error(err))
					continue
				}
				fn(snap)
			}
		}
	}()

	var once sync.Once
	var closeErr error
	return store.SubscriptionFunc(func() error {
		once.Do(func() {
			cancel()
			closeErr = pubsub.Close()
			<-done
		})
		return closeErr
	}), nil
}

func drain[T any](ch <-chan T) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
