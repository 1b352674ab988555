package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed pending authorization store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "oauth:pending:",
	}
}

func (r *RedisStore) key(state string) string {
	return r.prefix + state
}

func (r *RedisStore) Put(ctx context.Context, a Authorization) error {
	ttl, err := validate(a)
	if err != nil {
		return err
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("pending: failed to marshal: %w", err)
	}

	return r.client.Set(ctx, r.key(a.State), data, ttl).Err()
}

// Take reads and deletes in one GETDEL so concurrent callbacks with the
// same state cannot both succeed.
func (r *RedisStore) Take(ctx context.Context, state string) (*Authorization, error) {
	val, err := r.client.GetDel(ctx, r.key(state)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var a Authorization
	if err := json.Unmarshal([]byte(val), &a); err != nil {
		return nil, fmt.Errorf("pending: failed to unmarshal: %w", err)
	}
	a.State = state

	return &a, nil
}

var _ Store = (*RedisStore)(nil)
