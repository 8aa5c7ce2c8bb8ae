package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/gymdesk/domain"
)

// RefreshTokenStoreImpl implements domain.RefreshTokenStore using Redis.
// Redis expires the keys with the token.
type RefreshTokenStoreImpl struct {
	client *redis.Client
	prefix string
}

// NewRefreshTokenStore creates a new refresh token store
func NewRefreshTokenStore(client *redis.Client) domain.RefreshTokenStore {
	return &RefreshTokenStoreImpl{
		client: client,
		prefix: "refresh:",
	}
}

// Save implements domain.RefreshTokenStore
func (r *RefreshTokenStoreImpl) Save(ctx context.Context, jti string, userID uint, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+jti, userID, ttl).Err(); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Consume implements domain.RefreshTokenStore. A token can be consumed once.
func (r *RefreshTokenStoreImpl) Consume(ctx context.Context, jti string) (uint, error) {
	val, err := r.client.GetDel(ctx, r.prefix+jti).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, domain.ErrTokenInvalid
		}
		return 0, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, domain.ErrTokenInvalid
	}
	return uint(id), nil
}

// Revoke implements domain.RefreshTokenStore
func (r *RefreshTokenStoreImpl) Revoke(ctx context.Context, jti string) error {
	return r.client.Del(ctx, r.prefix+jti).Err()
}
