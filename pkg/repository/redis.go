package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

// Redis stores keys in a Redis-compatible server under a common prefix
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to addr and verifies the connection with a ping
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to ping redis", goerr.V("addr", addr))
	}

	return &Redis{client: client, prefix: "forge:"}, nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Close releases the underlying client
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerr.Wrap(ErrKeyNotFound, "redis get", goerr.V("key", key))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get value", goerr.V("key", key))
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	err := r.client.Set(ctx, r.prefix+key, value, 0).Err()
	if err == nil {
		return nil
	}
	// maxmemory with a noeviction policy replies "OOM command not allowed ..."
	if strings.HasPrefix(err.Error(), "OOM") {
		return goerr.Wrap(ErrQuotaExceeded, err.Error(), goerr.V("key", key))
	}
	return goerr.Wrap(err, "failed to set value", goerr.V("key", key))
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return goerr.Wrap(err, "failed to delete value", goerr.V("key", key))
	}
	return nil
}
