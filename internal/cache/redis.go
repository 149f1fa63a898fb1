package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

type RedisIdempotency struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisIdempotency(rdb *redis.Client, ttl time.Duration) *RedisIdempotency {
	if ttl <= 0 {
		ttl = TTLIdempotency
	}
	return &RedisIdempotency{rdb: rdb, ttl: ttl}
}

func (r *RedisIdempotency) Reserve(ctx context.Context, key string) (Reservation, error) {
	ok, err := r.rdb.SetNX(ctx, key, pendingMarker, r.ttl).Result()
	if err != nil {
		return Reservation{}, err
	}
	if ok {
		return Reservation{Acquired: true}, nil
	}

	stored, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		ok, err = r.rdb.SetNX(ctx, key, pendingMarker, r.ttl).Result()
		if err != nil {
			return Reservation{}, err
		}
		if ok {
			return Reservation{Acquired: true}, nil
		}
		return Reservation{InFlight: true}, nil
	}
	if err != nil {
		return Reservation{}, err
	}
	return reservationFor(stored), nil
}

func (r *RedisIdempotency) Complete(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, key, value, r.ttl).Err()
}

func (r *RedisIdempotency) Release(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}
