package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisSettingsKey is where the document lives. Settings never expire.
const redisSettingsKey = "beercompass:settings"

const redisConnectTimeout = 5 * time.Second

// RedisStore keeps the settings document as a JSON value under a single
// key, for deployments where several API instances share one backend.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore parses the URL, connects, and verifies the server is
// reachable before returning.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close() // nolint:errcheck
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return &RedisStore{client: client, key: redisSettingsKey}, nil
}

// Load reads and sanitizes the stored document. A missing key yields the
// defaults.
func (r *RedisStore) Load(ctx context.Context) (Settings, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("error reading settings from redis: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("error parsing settings from redis: %w", err)
	}

	return s.Normalize(), nil
}

// Save normalizes and persists the document with no expiry.
func (r *RedisStore) Save(ctx context.Context, s Settings) error {
	data, err := json.Marshal(s.Normalize())
	if err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}

	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("error writing settings to redis: %w", err)
	}

	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
