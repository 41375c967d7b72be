package queue

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"taskboard/internal/models"
	"taskboard/pkg/logger"
)

// RedisStore keeps the queue as a JSON array under a fixed key. Like
// FileStore, every failure degrades to "empty queue" or "skip write".
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to the Redis at url and stores the queue under key.
// A bad URL or unreachable server is absorbed: the returned store simply
// stops being durable.
func NewRedisStore(ctx context.Context, url, key string) *RedisStore {
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Error(ctx, "Invalid REDIS_URL, queue will not be durable", "error", err, "url", url)
		return &RedisStore{key: key}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn(ctx, "Redis ping failed, queue will not be durable", "error", err)
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) []models.QueuedAction {
	if s.client == nil {
		return nil
	}
	b, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		logger.Debug(ctx, "Redis queue read failed, treating queue as empty", "error", err)
		return nil
	}
	var actions []models.QueuedAction
	if err := json.Unmarshal(b, &actions); err != nil {
		logger.Warn(ctx, "Redis queue value corrupt, treating queue as empty", "error", err)
		return nil
	}
	return actions
}

func (s *RedisStore) Save(ctx context.Context, actions []models.QueuedAction) {
	if s.client == nil {
		return
	}
	if actions == nil {
		actions = []models.QueuedAction{}
	}
	b, err := json.Marshal(actions)
	if err != nil {
		logger.Warn(ctx, "Queue marshal failed", "error", err)
		return
	}
	if err := s.client.Set(ctx, s.key, b, 0).Err(); err != nil {
		logger.Debug(ctx, "Redis queue write failed", "error", err)
	}
}
