package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const statusTTL = 5 * time.Minute

// RedisStore keeps presence in Redis so multiple relay instances share a view.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

func statusKey(userID string) string {
	return fmt.Sprintf("presence:%s", userID)
}

func (s *RedisStore) SetStatus(ctx context.Context, userID string, status Status) error {
	return s.client.Set(ctx, statusKey(userID), string(status), statusTTL).Err()
}

func (s *RedisStore) GetStatus(ctx context.Context, userID string) (Status, error) {
	val, err := s.client.Get(ctx, statusKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return StatusOffline, nil
	}
	if err != nil {
		return StatusOffline, err
	}
	return Status(val), nil
}

func (s *RedisStore) GetStatuses(ctx context.Context, userIDs []string) (map[string]Status, error) {
	result := make(map[string]Status, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = statusKey(id)
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, id := range userIDs {
		if str, ok := vals[i].(string); ok {
			result[id] = Status(str)
		} else {
			result[id] = StatusOffline
		}
	}
	return result, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, statusKey(userID)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
