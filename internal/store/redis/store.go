package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/varlink/internal/domain"
	"github.com/MrSnakeDoc/varlink/internal/logger"
	"github.com/MrSnakeDoc/varlink/internal/store"
)

// maxCreateAttempts bounds id regeneration on the (unlikely) collision.
const maxCreateAttempts = 5

// updateScript merges fields into a link hash only if it still exists,
// so an update racing a delete never resurrects the link.
var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

// Store handles Redis operations for links and their live feed
type Store struct {
	client *redis.Client
	logger logger.Logger
	newID  func() string
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{
		client: client,
		logger: log,
		newID:  store.NewID,
	}
}

var _ store.Store = (*Store)(nil)

// Create stores a link hash under a fresh ID and announces it
func (s *Store) Create(ctx context.Context, rec domain.Record) (string, error) {
	args, err := encodeFields(rec)
	if err != nil {
		return "", err
	}

	var id string
	for attempt := 0; ; attempt++ {
		if attempt == maxCreateAttempts {
			return "", fmt.Errorf("failed to allocate link id after %d attempts", attempt)
		}
		id = s.newID()
		added, err := s.client.SAdd(ctx, AllLinksKey(), id).Result()
		if err != nil {
			return "", fmt.Errorf("failed to add link to set: %w", err)
		}
		if added == 1 {
			break
		}
	}

	if len(args) > 0 {
		if err := s.client.HSet(ctx, LinkKey(id), args...).Err(); err != nil {
			_ = s.client.SRem(ctx, AllLinksKey(), id).Err()
			return "", fmt.Errorf("failed to save link: %w", err)
		}
	}

	s.publish(ctx, id)
	return id, nil
}

// Update merges fields into an existing link; missing links are left alone
func (s *Store) Update(ctx context.Context, id string, fields domain.Record) error {
	if len(fields) == 0 {
		return nil
	}
	args, err := encodeFields(fields)
	if err != nil {
		return err
	}

	updated, err := updateScript.Run(ctx, s.client, []string{LinkKey(id)}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}
	if updated == 0 {
		s.logger.Debug("update skipped, link does not exist", logger.String("link_id", id))
		return nil
	}

	s.publish(ctx, id)
	return nil
}

// Delete removes a link from Redis
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, LinkKey(id))
		pipe.SRem(ctx, AllLinksKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	s.publish(ctx, id)
	return nil
}

// GetAll retrieves every link hash
func (s *Store) GetAll(ctx context.Context) (domain.Snapshot, error) {
	ids, err := s.client.SMembers(ctx, AllLinksKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get link IDs: %w", err)
	}

	snap := make(domain.Snapshot, len(ids))
	if len(ids) == 0 {
		return snap, nil
	}

	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(ids))
	for _, id := range ids {
		cmds[id] = pipe.HGetAll(ctx, LinkKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get links: %w", err)
	}

	for id, cmd := range cmds {
		hash, err := cmd.Result()
		if err != nil || len(hash) == 0 {
			// Skip links deleted between SMEMBERS and HGETALL
			continue
		}
		snap[id] = decodeFields(hash)
	}

	return snap, nil
}

// Ping checks the Redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// publish announces a change (best effort: a lost message only delays the
// next refresh of subscribers)
func (s *Store) publish(ctx context.Context, id string) {
	if err := s.client.Publish(ctx, ChangesChannel(), id).Err(); err != nil {
		s.logger.Warn("failed to publish link change",
			logger.String("link_id", id),
			logger.Error(err))
	}
}
