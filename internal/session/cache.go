// Package session implements the deduplication and session gate that sits in
// front of the conversation state machine. The conversation log in the store
// is the source of truth; the Cache here is an advisory shortcut that may be
// dropped at any time.
package session

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache remembers when a sender was last seen. Implementations must be safe
// for concurrent use. A miss only costs a store round trip.
type Cache interface {
	Seen(sender string) (time.Time, bool)
	Touch(sender string, at time.Time)
}

// LRUCache is a size-bounded, time-boxed Cache backed by an expirable LRU.
type LRUCache struct {
	lru *expirable.LRU[string, time.Time]
}

// NewLRUCache returns a cache holding at most size senders, each for ttl.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{lru: expirable.NewLRU[string, time.Time](size, nil, ttl)}
}

// Seen implements Cache.
func (c *LRUCache) Seen(sender string) (time.Time, bool) {
	return c.lru.Get(sender)
}

// Touch implements Cache. Older timestamps never overwrite newer ones.
func (c *LRUCache) Touch(sender string, at time.Time) {
	if prev, ok := c.lru.Peek(sender); ok && prev.After(at) {
		return
	}
	c.lru.Add(sender, at)
}

// Len returns the number of cached senders.
func (c *LRUCache) Len() int { return c.lru.Len() }
