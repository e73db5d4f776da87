package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const (
	// apiKeyCachePrefix namespaces resolution entries in Redis.
	apiKeyCachePrefix = "apikey:user:"
	// apiKeyCacheTTL bounds staleness if invalidation on rotation is missed.
	apiKeyCacheTTL = 5 * time.Minute
	// revokedMarker is written on invalidation instead of deleting the entry.
	// A bare DEL loses the race against a lookup that read the old row before
	// rotation committed: its SetUserID would re-cache the rotated-out key.
	// The marker occupies the slot so SetUserID's NX write cannot land, and
	// lookups treat it as a miss.
	revokedMarker = "!revoked"
)

// cacheKey derives the Redis key from a digest of the API key, so raw key
// material never reaches Redis.
func cacheKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return apiKeyCachePrefix + hex.EncodeToString(sum[:])
}

// GetUserID returns the cached resolution for an API key, "" on miss.
// Revoked entries read as misses. A miss is not an error.
func (c *Cache) GetUserID(ctx context.Context, apiKey string) (string, error) {
	v, err := c.client.Get(ctx, cacheKey(apiKey)).Result()
	if err != nil {
		return "", nil //nolint:nilerr // miss or transient failure, fall through to the store
	}
	if v == revokedMarker {
		return "", nil
	}
	return v, nil
}

// SetUserID caches an API key resolution. NX: an existing entry wins, in
// particular the revoked marker a concurrent rotation may have written.
func (c *Cache) SetUserID(ctx context.Context, apiKey, userID string) error {
	return c.client.SetNX(ctx, cacheKey(apiKey), userID, apiKeyCacheTTL).Err()
}

// Invalidate marks a cached resolution revoked. Called after rotation so the
// superseded key stops resolving immediately, including for lookups that
// were already in flight against the pre-rotation row.
func (c *Cache) Invalidate(ctx context.Context, apiKey string) error {
	return c.client.Set(ctx, cacheKey(apiKey), revokedMarker, apiKeyCacheTTL).Err()
}
