// Package doccache holds uploaded document text for a limited time, keyed by
// user id.
package doccache

import (
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCapacity = 100
	DefaultTTL      = time.Hour
)

// ErrNotFound is returned for user ids that were never stored, were evicted,
// or have expired.
var ErrNotFound = errors.New("no document uploaded for this user_id")

// Cache is a bounded, expiring map from user id to document text. When full,
// the least recently used entry is evicted. It is safe for concurrent use.
type Cache struct {
	lru *expirable.LRU[string, string]
}

// New creates a cache. Non-positive arguments select the defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{lru: expirable.NewLRU[string, string](capacity, nil, ttl)}
}

// Put stores text under userID, replacing any previous document and
// restarting its TTL.
func (c *Cache) Put(userID, text string) {
	c.lru.Add(userID, text)
}

// Get returns the document for userID.
func (c *Cache) Get(userID string) (string, error) {
	text, ok := c.lru.Get(userID)
	if !ok {
		return "", ErrNotFound
	}
	return text, nil
}

// Delete drops a document.
func (c *Cache) Delete(userID string) {
	c.lru.Remove(userID)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
