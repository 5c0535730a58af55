package services

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultSignedURLCacheSize = 10_000

// SignedURLCache keeps recently signed links so repeated detail views reuse them.
// The TTL must stay well below the link lifetime so a cached link is never near expiry.
type SignedURLCache struct {
	cache *lru.Cache[string, signedURL]
	ttl   time.Duration
	now   func() time.Time
}

type signedURL struct {
	url       string
	expiresAt time.Time
}

// NewSignedURLCache creates a cache whose entries expire after ttl
func NewSignedURLCache(size int, ttl time.Duration) (*SignedURLCache, error) {
	if size <= 0 {
		size = defaultSignedURLCacheSize
	}
	c, err := lru.New[string, signedURL](size)
	if err != nil {
		return nil, err
	}
	return &SignedURLCache{cache: c, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached link for key if it has not expired
func (c *SignedURLCache) Get(key string) (string, bool) {
	cached, ok := c.cache.Get(key)
	if !ok {
		return "", false
	}
	if !c.now().Before(cached.expiresAt) {
		c.cache.Remove(key)
		return "", false
	}
	return cached.url, true
}

// Set stores a freshly signed link for key
func (c *SignedURLCache) Set(key, url string) {
	c.cache.Add(key, signedURL{url: url, expiresAt: c.now().Add(c.ttl)})
}

// Remove drops key from the cache
func (c *SignedURLCache) Remove(key string) {
	c.cache.Remove(key)
}
