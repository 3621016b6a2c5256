package kyc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"investgate/pkg/platform/sentinel"
)

const flowKeyPrefix = "kyc:flow:"

// RedisStore persists flows as JSON so progress survives process restarts.
// Flows have no TTL: abandoned onboarding can be resumed weeks later.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, flow *Flow) error {
	payload, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("marshal flow: %w", err)
	}
	if err := s.client.Set(ctx, flowKeyPrefix+flow.ID.String(), payload, 0).Err(); err != nil {
		return fmt.Errorf("save flow: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, id uuid.UUID) (*Flow, error) {
	payload, err := s.client.Get(ctx, flowKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find flow: %w", err)
	}
	var flow Flow
	if err := json.Unmarshal(payload, &flow); err != nil {
		return nil, fmt.Errorf("unmarshal flow: %w", err)
	}
	return &flow, nil
}
