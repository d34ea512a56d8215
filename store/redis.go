package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/regulator/ruleset"
)

// RedisStore keeps rule sets in Redis.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a [RedisStore]. An empty prefix defaults to "reg".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "reg"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":ruleset:" + name
}

func (s *RedisStore) versionKey(name string) string {
	return s.key(name) + ":v"
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":rulesets"
}

// Save writes the body, bumps the version, and indexes the name in one MULTI block.
func (s *RedisStore) Save(ctx context.Context, rs *ruleset.RuleSet) (int64, error) {
	data, err := encode(rs)
	if err != nil {
		return 0, err
	}

	var incr *redis.IntCmd
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(rs.Name), data, 0)
		incr = pipe.Incr(ctx, s.versionKey(rs.Name))
		pipe.SAdd(ctx, s.indexKey(), rs.Name)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return incr.Val(), nil
}

// Get reads body and version together.
func (s *RedisStore) Get(ctx context.Context, name string) (*ruleset.RuleSet, int64, error) {
	var body *redis.StringCmd
	var version *redis.StringCmd
	_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		body = pipe.Get(ctx, s.key(name))
		version = pipe.Get(ctx, s.versionKey(name))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	data, err := body.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	rs, err := decode(data)
	if err != nil {
		return nil, 0, err
	}

	v, err := version.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, errors.Join(ErrCorrupt, err)
	}
	return rs, v, nil
}

// Version returns ErrNotFound when no body is stored under name.
func (s *RedisStore) Version(ctx context.Context, name string) (int64, error) {
	var exists *redis.IntCmd
	var version *redis.StringCmd
	_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		exists = pipe.Exists(ctx, s.key(name))
		version = pipe.Get(ctx, s.versionKey(name))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if exists.Val() == 0 {
		return 0, ErrNotFound
	}

	v, err := version.Int64()
	if err != nil {
		return 0, errors.Join(ErrCorrupt, err)
	}
	return v, nil
}

// Delete removes body and index entry. The version counter survives so a later
// Save continues from it.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(name))
		pipe.SRem(ctx, s.indexKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	names, err := s.redis.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	sort.Strings(names)
	return names, nil
}

// Ping returns a point-in-time availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return time.Since(start), nil
}

var _ Store = (*RedisStore)(nil)
