// Package tokencache memoizes the WeCom access token for its reported
// lifetime.
package tokencache

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/qybridge/wecom-relay/internal/clients/wecom"
	"github.com/qybridge/wecom-relay/internal/metrics"
)

const tokenKey = "wecom_access_token"

// TokenSource fetches a fresh access token from the platform.
type TokenSource interface {
	FetchAccessToken(ctx context.Context) (wecom.AccessToken, error)
}

// Cache provides access token cache functionality. Concurrent callers
// hitting an empty cache share a single refresh; the platform rate
// limits gettoken, so duplicate fetches are not just wasteful.
type Cache struct {
	cache        *cache.Cache
	group        singleflight.Group
	source       TokenSource
	safetyWindow time.Duration
}

// New creates a new token cache instance. safetyWindow is subtracted
// from the platform-reported TTL so a token is never served right at
// its expiry.
func New(source TokenSource, safetyWindow time.Duration) *Cache {
	return &Cache{
		cache:        cache.New(cache.NoExpiration, 10*time.Minute),
		source:       source,
		safetyWindow: safetyWindow,
	}
}

// Token returns the cached access token, refreshing it when absent or
// expired. At most one refresh is in flight at a time.
func (c *Cache) Token(ctx context.Context) (string, error) {
	if token, found := c.cache.Get(tokenKey); found {
		return token.(string), nil
	}

	value, err, _ := c.group.Do(tokenKey, func() (any, error) {
		// A concurrent caller may have refreshed while this one waited.
		if token, found := c.cache.Get(tokenKey); found {
			return token, nil
		}
		token, err := c.source.FetchAccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh access token: %w", err)
		}
		metrics.TokenRefreshesTotal.Inc()

		ttl := token.ExpiresIn - c.safetyWindow
		if ttl <= 0 {
			ttl = token.ExpiresIn
		}
		c.cache.Set(tokenKey, token.Value, ttl)
		return token.Value, nil
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// Invalidate drops the cached token, forcing the next Token call to
// refresh. Used when the platform reports the token as expired early.
func (c *Cache) Invalidate() {
	c.cache.Delete(tokenKey)
}
