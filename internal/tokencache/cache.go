package tokencache

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Token is a cached OAuth2 access token. ExpiresAt is epoch milliseconds;
// zero means the issuer reported no expiry and the token must not be cached.
type Token struct {
	AccessToken string
	ExpiresAt   int64
}

// Cacheable reports whether the token carries a provable expiry.
func (t Token) Cacheable() bool {
	return t.ExpiresAt > 0
}

// Cache holds one access token per subscriber. Lookups and writes go through
// a RW mutex; refreshes for the same subscriber are collapsed through a
// singleflight group so at most one token exchange is outstanding per
// subscriber at a time.
type Cache struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]Token
	group  singleflight.Group
	buffer time.Duration
	now    func() time.Time
}

// New creates a token cache. buffer is the safety margin before a token's
// reported expiry at which it is treated as already expired.
func New(buffer time.Duration) *Cache {
	return &Cache{
		tokens: make(map[uuid.UUID]Token),
		buffer: buffer,
		now:    time.Now,
	}
}

// Get returns the cached token for a subscriber if one exists and is not
// within the expiry buffer.
func (c *Cache) Get(subscriberID uuid.UUID) (Token, bool) {
	c.mu.RLock()
	token, ok := c.tokens[subscriberID]
	c.mu.RUnlock()

	if !ok || !c.fresh(token) {
		return Token{}, false
	}
	return token, true
}

// Put stores a token for a subscriber, replacing any previous entry. Tokens
// without a provable expiry are not stored.
func (c *Cache) Put(subscriberID uuid.UUID, token Token) {
	if !token.Cacheable() {
		return
	}
	c.mu.Lock()
	c.tokens[subscriberID] = token
	c.mu.Unlock()
}

// GetOrIssue returns the cached token for a subscriber, or runs issue to
// obtain a fresh one on miss or expiry. Concurrent callers for the same
// subscriber share a single issue invocation; callers for different
// subscribers proceed independently.
func (c *Cache) GetOrIssue(subscriberID uuid.UUID, issue func() (Token, error)) (Token, error) {
	if token, ok := c.Get(subscriberID); ok {
		return token, nil
	}

	result, err, _ := c.group.Do(subscriberID.String(), func() (interface{}, error) {
		// Another caller may have refreshed while we waited on the group
		if token, ok := c.Get(subscriberID); ok {
			return token, nil
		}

		token, err := issue()
		if err != nil {
			return Token{}, err
		}
		c.Put(subscriberID, token)
		return token, nil
	})
	if err != nil {
		return Token{}, err
	}
	return result.(Token), nil
}

func (c *Cache) fresh(token Token) bool {
	if !token.Cacheable() {
		return false
	}
	return c.now().UnixMilli() < token.ExpiresAt-c.buffer.Milliseconds()
}
