package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"megan-waseller/internal/domain"
)

const conversationKeyPrefix = "conversation:"

// redisAPI is the subset of *redis.Client used by Redis.
type redisAPI interface {
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	RPushX(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Redis keeps each transcript as a list of JSON utterances. Keys expire after
// ttl without activity; reads and writes refresh the TTL.
type Redis struct {
	client redisAPI
	ttl    time.Duration
}

func NewRedis(client redisAPI, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, errors.New("memory: redis client must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) LoadOrCreate(ctx context.Context, address string, seed domain.Utterance) (domain.Transcript, error) {
	key := r.key(address)
	vals, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("memory: redis load %q: %w", address, err)
	}
	if len(vals) == 0 {
		if err := r.push(ctx, key, seed); err != nil {
			return nil, err
		}
		return domain.Transcript{seed}, nil
	}

	t := make(domain.Transcript, 0, len(vals))
	for _, v := range vals {
		var u domain.Utterance
		if err := json.Unmarshal([]byte(v), &u); err != nil {
			return nil, fmt.Errorf("memory: redis decode utterance: %w", err)
		}
		t = append(t, u)
	}
	if err := r.refresh(ctx, key); err != nil {
		return nil, err
	}
	return t, nil
}

// Append pushes onto an existing list with RPUSHX. When the key has expired
// in the meantime the list is recreated with the seed in front.
func (r *Redis) Append(ctx context.Context, address string, seed domain.Utterance, utterances ...domain.Utterance) error {
	key := r.key(address)
	vals, err := encode(utterances)
	if err != nil {
		return err
	}
	n, err := r.client.RPushX(ctx, key, vals...).Result()
	if err != nil {
		return fmt.Errorf("memory: redis append: %w", err)
	}
	if n == 0 {
		return r.push(ctx, key, append([]domain.Utterance{seed}, utterances...)...)
	}
	return r.refresh(ctx, key)
}

// push writes utterances with a single RPUSH so they land contiguously.
func (r *Redis) push(ctx context.Context, key string, utterances ...domain.Utterance) error {
	vals, err := encode(utterances)
	if err != nil {
		return err
	}
	if err := r.client.RPush(ctx, key, vals...).Err(); err != nil {
		return fmt.Errorf("memory: redis append: %w", err)
	}
	return r.refresh(ctx, key)
}

func (r *Redis) refresh(ctx context.Context, key string) error {
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return fmt.Errorf("memory: redis refresh ttl: %w", err)
	}
	return nil
}

func encode(utterances []domain.Utterance) ([]interface{}, error) {
	vals := make([]interface{}, 0, len(utterances))
	for _, u := range utterances {
		b, err := json.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("memory: redis encode utterance: %w", err)
		}
		vals = append(vals, string(b))
	}
	return vals, nil
}

func (r *Redis) key(address string) string {
	return conversationKeyPrefix + address
}
