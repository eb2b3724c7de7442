package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Namespace isolates installations sharing one redis; keys become
	// "marketlink:<namespace>:<key>".
	Namespace string
}

// RedisKV stores the session in redis, for installations that share state
// across processes. Writers are not coordinated: last write wins.
type RedisKV struct {
	redisdb *redis.Client
	prefix  string
}

func NewRedisKV(cfg RedisConfig) *RedisKV {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ns := cfg.Namespace
	if ns == "" {
		ns = "default"
	}

	return &RedisKV{redisdb: redisdb, prefix: "marketlink:" + ns + ":"}
}

// Ping checks redis connectivity.
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.redisdb.Ping(ctx).Err()
}

func (r *RedisKV) Close() error {
	return r.redisdb.Close()
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.redisdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	return v, err
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	return r.redisdb.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, r.prefix+k)
	}
	return r.redisdb.Del(ctx, full...).Err()
}
