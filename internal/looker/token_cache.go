package looker

import (
	"sync"
	"time"
)

// tokenCache stores the Looker access token in memory for per-session
// caching. This implementation is thread-safe and supports automatic
// expiration. Tokens are never persisted to disk.
type tokenCache struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	buffer    time.Duration
}

// newTokenCache creates an empty token cache. The buffer is subtracted
// from every TTL so tokens refresh before actual expiration.
func newTokenCache(buffer time.Duration) *tokenCache {
	if buffer < 0 {
		buffer = 0
	}
	return &tokenCache{buffer: buffer}
}

// Get retrieves the cached token if it exists and is not expired.
// Returns the token and true if valid, empty string and false otherwise.
func (c *tokenCache) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == "" {
		return "", false
	}

	if time.Now().After(c.expiresAt) {
		return "", false
	}

	return c.token, true
}

// Set stores a token with the specified TTL, less the refresh buffer.
func (c *tokenCache) Set(token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	if ttl > c.buffer {
		ttl -= c.buffer
	}
	c.expiresAt = time.Now().Add(ttl)
}

// Clear removes the cached token
func (c *tokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.expiresAt = time.Time{}
}

// ClearIf removes the cached token only if it still matches the given
// value. This keeps a stale 401 from discarding a token another caller
// has already refreshed.
func (c *tokenCache) ClearIf(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == token {
		c.token = ""
		c.expiresAt = time.Time{}
	}
}

// IsExpired returns true if the token is expired or not set
func (c *tokenCache) IsExpired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == "" {
		return true
	}

	return time.Now().After(c.expiresAt)
}

// ExpiresAt returns the expiration time of the current token.
// Returns zero time if no token is cached.
func (c *tokenCache) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiresAt
}

// TTL returns the remaining time until the token expires.
// Returns 0 if the token is expired or not set.
func (c *tokenCache) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == "" {
		return 0
	}

	remaining := time.Until(c.expiresAt)
	if remaining < 0 {
		return 0
	}

	return remaining
}
