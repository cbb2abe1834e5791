// Package idempotency remembers which order an Idempotency-Key produced.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pending   = "pending"
	MaxKeyLen = 255
)

var (
	ErrInProgress = errors.New("idempotency: request in progress")
	ErrBadKey     = errors.New("idempotency: bad key")
)

type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func New(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func redisKey(userID uint, key string) string {
	return fmt.Sprintf("idem:order:%d:%s", userID, key)
}

// Reserve claims key for userID. It returns 0 when the caller now owns the key,
// the stored order id when the key already completed, or ErrInProgress.
func (s *Store) Reserve(ctx context.Context, userID uint, key string) (uint, error) {
	if key == "" || len(key) > MaxKeyLen {
		return 0, ErrBadKey
	}
	k := redisKey(userID, key)

	ok, err := s.rdb.SetNX(ctx, k, pending, s.ttl).Result()
	if err != nil {
		return 0, fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return 0, nil
	}

	val, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		ok, err = s.rdb.SetNX(ctx, k, pending, s.ttl).Result()
		if err != nil {
			return 0, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return 0, nil
		}
		return 0, ErrInProgress
	}
	if err != nil {
		return 0, fmt.Errorf("idempotency lookup: %w", err)
	}
	if val == pending {
		return 0, ErrInProgress
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("idempotency: corrupt value %q", val)
	}
	return uint(id), nil
}

func (s *Store) Complete(ctx context.Context, userID uint, key string, orderID uint) error {
	return s.rdb.Set(ctx, redisKey(userID, key), strconv.FormatUint(uint64(orderID), 10), s.ttl).Err()
}

func (s *Store) Release(ctx context.Context, userID uint, key string) error {
	return s.rdb.Del(ctx, redisKey(userID, key)).Err()
}
