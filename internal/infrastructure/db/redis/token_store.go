package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/budgettracker/budget-tracker/internal/core/ports"
)

// TokenStore keeps the bearer token under a single Redis key so several
// terminals on one machine share a login.
// Key format: <prefix>budget_tracker_token
type TokenStore struct {
	client redis.UniversalClient
	key    string
}

// NewTokenStore wraps client. prefix may be empty.
func NewTokenStore(client redis.UniversalClient, prefix string) *TokenStore {
	return &TokenStore{client: client, key: prefix + ports.TokenStorageKey}
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// Save stores token without expiry; the backend decides when it stops working.
func (s *TokenStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *TokenStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
