package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/hardingsamueljohn-a11y/CineLink/internal/cache"
)

// Cache stores encoded catalog replies.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
}

const memorySweepAt = 1024

type MemoryCache struct{ c *cache.TTLCache[string, []byte] }

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{c: cache.NewTTL[string, []byte](ttl)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	return v, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, val []byte) error {
	if m.c.Len() >= memorySweepAt {
		m.c.Sweep()
	}
	m.c.Set(key, val)
	return nil
}

// RedisCache shares catalog replies between replicas.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: "tmdb:"}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, val []byte) error {
	return r.rdb.Set(ctx, r.prefix+key, val, r.ttl).Err()
}

// CachedClient serves every read except search from Cache. Cache failures
// fall through to upstream.
type CachedClient struct {
	*Client
	cache Cache
	log   *log.Helper
}

func NewCachedClient(c *Client, store Cache, logger log.Logger) *CachedClient {
	return &CachedClient{Client: c, cache: store, log: log.NewHelper(log.With(logger, "module", "tmdb"))}
}

func cached[T any](ctx context.Context, cc *CachedClient, key string, fetch func(context.Context) (T, error)) (T, error) {
	if b, ok, err := cc.cache.Get(ctx, key); err != nil {
		cc.log.WithContext(ctx).Warnf("cache get %s: %v", key, err)
	} else if ok {
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			return v, nil
		}
	}
	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	if b, err := json.Marshal(v); err == nil {
		if err := cc.cache.Set(ctx, key, b); err != nil {
			cc.log.WithContext(ctx).Warnf("cache set %s: %v", key, err)
		}
	}
	return v, nil
}

func (cc *CachedClient) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	return cached(ctx, cc, fmt.Sprintf("movie:%d:%s", id, cc.Language), func(ctx context.Context) (*Movie, error) {
		return cc.Client.GetMovie(ctx, id)
	})
}

func (cc *CachedClient) NowPlaying(ctx context.Context) ([]Movie, error) {
	return cached(ctx, cc, "now_playing:"+cc.Region+":"+cc.Language, cc.Client.NowPlaying)
}

func (cc *CachedClient) TopRated(ctx context.Context) ([]Movie, error) {
	return cached(ctx, cc, "top_rated:"+cc.Language, cc.Client.TopRated)
}

func (cc *CachedClient) Trending(ctx context.Context, window string) ([]Movie, error) {
	if window != "week" {
		window = "day"
	}
	return cached(ctx, cc, "trending:"+window+":"+cc.Language, func(ctx context.Context) ([]Movie, error) {
		return cc.Client.Trending(ctx, window)
	})
}

func (cc *CachedClient) Hero(ctx context.Context) ([]Movie, error) {
	return cached(ctx, cc, "hero:"+cc.Region+":"+cc.Language, cc.Client.Hero)
}

func (cc *CachedClient) Credits(ctx context.Context, id int64) (*Credits, error) {
	return cached(ctx, cc, fmt.Sprintf("credits:%d:%s", id, cc.Language), func(ctx context.Context) (*Credits, error) {
		return cc.Client.Credits(ctx, id)
	})
}

func (cc *CachedClient) Videos(ctx context.Context, id int64) ([]Video, error) {
	return cached(ctx, cc, fmt.Sprintf("videos:%d", id), func(ctx context.Context) ([]Video, error) {
		return cc.Client.Videos(ctx, id)
	})
}
