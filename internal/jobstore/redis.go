package jobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one string key per run: <prefix><runKey> -> job id.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisStore) Save(ctx context.Context, runKey, jobID string) error {
	if err := s.client.Set(ctx, s.prefix+runKey, jobID, 0).Err(); err != nil {
		return fmt.Errorf("save job id for %s: %w", runKey, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, runKey string) (string, bool, error) {
	id, err := s.client.Get(ctx, s.prefix+runKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load job id for %s: %w", runKey, err)
	}
	return id, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, runKey string) error {
	if err := s.client.Del(ctx, s.prefix+runKey).Err(); err != nil {
		return fmt.Errorf("delete job id for %s: %w", runKey, err)
	}
	return nil
}
