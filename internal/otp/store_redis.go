package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"investgate/pkg/platform/sentinel"
)

const keyPrefix = "otp:challenge:"

// RedisStore persists challenges with a TTL so abandoned codes clean
// themselves up.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, challenge Challenge) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	ttl := time.Until(challenge.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := s.client.Set(ctx, keyPrefix+challenge.Identifier, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, identifier string) (Challenge, error) {
	payload, err := s.client.Get(ctx, keyPrefix+identifier).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Challenge{}, sentinel.ErrNotFound
		}
		return Challenge{}, fmt.Errorf("find challenge: %w", err)
	}
	var challenge Challenge
	if err := json.Unmarshal(payload, &challenge); err != nil {
		return Challenge{}, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return challenge, nil
}

func (s *RedisStore) Delete(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, keyPrefix+identifier).Err(); err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}
