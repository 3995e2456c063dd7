// Package cache holds the read-through share cache used by registry queries.
//
// Every identity has a write version that only moves forward. Mutations bump
// it while serialized in the store transaction and write the committed count
// through with that version; readers fill an empty entry only if no bump
// happened since they sampled the version. A late reader therefore cannot
// overwrite a newer mutation.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"shareledger/pkg/domain"
)

const (
	sharesKeyPrefix  = "shareledger:shares:"
	versionKeyPrefix = "shareledger:shares-version:"
)

// DefaultTTL bounds how long a cached share count may be served.
const DefaultTTL = 5 * time.Minute

// KEYS[1] entry, KEYS[2] version; ARGV reader version, shares, ttl ms.
var fillScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[2]) or '0')
if current ~= tonumber(ARGV[1]) then
  return 0
end
if redis.call('SET', KEYS[1], ARGV[1] .. ':' .. ARGV[2], 'PX', ARGV[3], 'NX') then
  return 1
end
return 0
`)

// KEYS[1] entry; ARGV write version, shares, ttl ms.
var putScript = redis.NewScript(`
local entry = redis.call('GET', KEYS[1])
if entry then
  local stored = tonumber(string.match(entry, '^(%d+):'))
  if stored and stored > tonumber(ARGV[1]) then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1] .. ':' .. ARGV[2], 'PX', ARGV[3])
return 1
`)

// ShareCache caches per-identity share counts in Redis. The store stays
// authoritative; entries carry the write version they were produced at.
type ShareCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// Option configures a ShareCache.
type Option func(*ShareCache)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *ShareCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewShareCache wraps client. The client lifecycle is managed by the caller.
func NewShareCache(client redis.Cmdable, opts ...Option) *ShareCache {
	c := &ShareCache{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func key(id domain.Identity) string {
	return sharesKeyPrefix + id.String()
}

func versionKey(id domain.Identity) string {
	return versionKeyPrefix + id.String()
}

// Get returns the cached share count. ok is false on a miss.
func (c *ShareCache) Get(ctx context.Context, id domain.Identity) (shares int64, ok bool, err error) {
	raw, err := c.client.Get(ctx, key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	_, shares, err = decodeEntry(raw)
	if err != nil {
		return 0, false, err
	}
	return shares, true, nil
}

// Version returns the current write version of id, 0 if it was never bumped.
func (c *ShareCache) Version(ctx context.Context, id domain.Identity) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Bump advances the write version of id and returns the new value.
func (c *ShareCache) Bump(ctx context.Context, id domain.Identity) (int64, error) {
	return c.client.Incr(ctx, versionKey(id)).Result()
}

// Fill stores shares read at version when the entry is empty and the write
// version has not moved. It reports whether the entry was written.
func (c *ShareCache) Fill(ctx context.Context, id domain.Identity, version, shares int64) (bool, error) {
	n, err := fillScript.Run(ctx, c.client,
		[]string{key(id), versionKey(id)},
		version, shares, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Put writes the committed share count at version unless a newer version is
// already cached.
func (c *ShareCache) Put(ctx context.Context, id domain.Identity, version, shares int64) error {
	return putScript.Run(ctx, c.client,
		[]string{key(id)},
		version, shares, c.ttl.Milliseconds(),
	).Err()
}

// Invalidate drops the entry for id and keeps its version. Missing keys are
// not an error.
func (c *ShareCache) Invalidate(ctx context.Context, id domain.Identity) error {
	return c.client.Del(ctx, key(id)).Err()
}

func decodeEntry(raw string) (version, shares int64, err error) {
	v, s, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed share cache entry %q", raw)
	}
	if version, err = strconv.ParseInt(v, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("malformed share cache version: %w", err)
	}
	if shares, err = strconv.ParseInt(s, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("malformed share cache shares: %w", err)
	}
	return version, shares, nil
}
