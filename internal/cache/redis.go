package cache

import (
	"context"
	"errors"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"github.com/redis/go-redis/v9"
)

// Redis shares published pages across API replicas.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ portfolios.PublishedCache = (*Redis)(nil)

// NewRedisClient builds a go-redis client. Connections open lazily.
func NewRedisClient(address, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// NewRedis wraps client with the given entry ttl.
func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, slug string) (portfolios.Portfolio, bool, error) {
	raw, err := r.client.Get(ctx, publishedKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return portfolios.Portfolio{}, false, nil
	}
	if err != nil {
		return portfolios.Portfolio{}, false, err
	}
	portfolio, err := decode(raw)
	if err != nil {
		return portfolios.Portfolio{}, false, err
	}
	return portfolio, true, nil
}

func (r *Redis) Set(ctx context.Context, portfolio portfolios.Portfolio) error {
	raw, err := encode(portfolio)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, publishedKey(portfolio.Slug), raw, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, slug string) error {
	return r.client.Del(ctx, publishedKey(slug)).Err()
}

// Ping verifies connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
