package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

type RedisConfig struct {
	Host       string
	Port       string
	Password   string
	DB         int
	Retention  time.Duration
	MaxEntries int64
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:       "localhost",
		Port:       "6379",
		Password:   "",
		DB:         0,
		Retention:  7 * 24 * time.Hour,
		MaxEntries: 5,
	}
}

func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// RedisStore keeps the newest responses per route key in a list, newest
// first, trimmed to MaxEntries.
type RedisStore struct {
	client     redis.Cmdable
	retention  time.Duration
	maxEntries int64
}

func NewRedisStore(client redis.Cmdable, cfg RedisConfig) *RedisStore {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1
	}
	return &RedisStore{
		client:     client,
		retention:  cfg.Retention,
		maxEntries: cfg.MaxEntries,
	}
}

func responseKey(key models.RouteKey) string {
	return "flightgraph:responses:" + key.String()
}

func (s *RedisStore) FindFreshest(ctx context.Context, key models.RouteKey, notBefore time.Time) (models.CachedResponse, bool, error) {
	data, err := s.client.LIndex(ctx, responseKey(key), 0).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.CachedResponse{}, false, nil
	}
	if err != nil {
		return models.CachedResponse{}, false, err
	}

	var entry models.CachedResponse
	if err := json.Unmarshal(data, &entry); err != nil {
		return models.CachedResponse{}, false, err
	}
	if entry.CreatedAt.Before(notBefore) {
		return models.CachedResponse{}, false, nil
	}
	return entry, true, nil
}

func (s *RedisStore) Insert(ctx context.Context, resp models.CachedResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	key := responseKey(resp.Key)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, s.maxEntries-1)
	if s.retention > 0 {
		pipe.Expire(ctx, key, s.retention)
	}
	_, err = pipe.Exec(ctx)
	return err
}
