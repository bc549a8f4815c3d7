package completion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long a cached response stays valid.
const DefaultCacheTTL = 24 * time.Hour

// cacheKeyPrefix namespaces keys in shared stores.
const cacheKeyPrefix = "studygen:completion:"

// Cache stores service responses by request key.
// A miss returns ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (resp Response, ok bool, err error)
	Set(ctx context.Context, key string, resp Response) error
}

// CacheKey derives a stable key from every request field that affects the answer.
func CacheKey(req Request) string {
	h := sha256.New()
	for _, part := range []string{
		req.Model,
		req.System,
		req.User,
		strconv.Itoa(req.MaxTokens),
		strconv.FormatFloat(float64(req.Temperature), 'f', -1, 32),
		strconv.FormatBool(req.JSONMode),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// ---------------------------------------------------------------------------
// MemoryCache
// ---------------------------------------------------------------------------

type memoryEntry struct {
	resp    Response
	expires time.Time
}

// MemoryCache is an in-process Cache. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryCache creates a MemoryCache. ttl <= 0 uses DefaultCacheTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Response, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Response{}, false, nil
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return Response{}, false, nil
	}
	return e.resp, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, resp Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{resp: resp, expires: c.now().Add(c.ttl)}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ---------------------------------------------------------------------------
// RedisCache
// ---------------------------------------------------------------------------

// RedisCache is a Cache backed by Redis; values are JSON-encoded responses.
type RedisCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisCache connects to the Redis server at url (redis://host:port/db)
// and checks it answers a ping.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (Response, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Response{}, false, nil
	}
	if err != nil {
		return Response{}, false, fmt.Errorf("redis get: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, false, fmt.Errorf("decode cached response: %w", err)
	}
	return resp, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, resp Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode cached response: %w", err)
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
