package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// setWithQuotaScript writes one hash field only if the whole hash stays within quota.
// Returns -1 when the write is refused.
var setWithQuotaScript = redis.NewScript(`
local quota = tonumber(ARGV[3])
local used = string.len(ARGV[1]) + string.len(ARGV[2])
local fields = redis.call("HGETALL", KEYS[1])
for i = 1, #fields, 2 do
  if fields[i] ~= ARGV[1] then
    used = used + string.len(fields[i]) + string.len(fields[i + 1])
  end
end
if quota > 0 and used > quota then
  return -1
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return used
`)

// RedisKV stores each profile as one Redis hash.
type RedisKV struct {
	client *redis.Client
	prefix string
	quota  int64
}

// RedisOptions configures NewRedisKV.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Quota    int64
}

// NewRedisKV connects to Redis. The connection is lazy; use Ping to check it.
func NewRedisKV(opts RedisOptions) *RedisKV {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisKVWithClient(client, opts.Prefix, opts.Quota)
}

// NewRedisKVWithClient wraps an existing client.
func NewRedisKVWithClient(client *redis.Client, prefix string, quota int64) *RedisKV {
	if prefix == "" {
		prefix = "companion"
	}
	return &RedisKV{client: client, prefix: prefix, quota: quota}
}

func (r *RedisKV) hashKey(profileID string) string {
	return fmt.Sprintf("%s:profile:%s", r.prefix, profileID)
}

func (r *RedisKV) Get(ctx context.Context, profileID, key string) ([]byte, error) {
	value, err := r.client.HGet(ctx, r.hashKey(profileID), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget: %w", err)
	}
	return value, nil
}

func (r *RedisKV) Set(ctx context.Context, profileID, key string, value []byte) error {
	used, err := setWithQuotaScript.Run(ctx, r.client, []string{r.hashKey(profileID)}, key, value, r.quota).Int64()
	if err != nil {
		return fmt.Errorf("redis set script: %w", err)
	}
	if used < 0 {
		return fmt.Errorf("profile %s over %d bytes: %w", profileID, r.quota, ErrQuotaExceeded)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, profileID, key string) error {
	if err := r.client.HDel(ctx, r.hashKey(profileID), key).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

func (r *RedisKV) Clear(ctx context.Context, profileID string) error {
	if err := r.client.Del(ctx, r.hashKey(profileID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}
