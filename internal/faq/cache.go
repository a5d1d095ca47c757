// Package faq keeps the common-questions cache: keyword patterns mapped to
// follow-up questions shoppers usually ask about a topic.
package faq

import (
	"errors"
	"strings"
	"sync"
	"time"

	"shoppa-backend/internal/shared/util"
)

const (
	defaultTTL        = 24 * time.Hour
	defaultMaxEntries = 256
)

var ErrEmptyEntry = errors.New("faq entry needs at least one pattern and one answer")

// Entry is one cached topic. BuiltIn entries never expire and are never
// evicted.
type Entry struct {
	Patterns  []string
	Answers   []string
	BuiltIn   bool
	ExpiresAt time.Time
}

type Cache struct {
	mu         sync.RWMutex
	entries    []Entry
	now        func() time.Time
	maxEntries int
}

// NewCache returns a cache seeded with the built-in topics.
func NewCache(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	c := &Cache{now: now, maxEntries: defaultMaxEntries}
	for _, e := range builtIns {
		c.entries = append(c.entries, Entry{
			Patterns: foldAll(e.Patterns),
			Answers:  append([]string(nil), e.Answers...),
			BuiltIn:  true,
		})
	}
	return c
}

// Lookup returns the answers of the most recently inserted live entry with a
// pattern contained in text.
func (c *Cache) Lookup(text string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	folded := util.Fold(strings.TrimSpace(text))
	if folded == "" {
		return nil, false
	}
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := c.entries[i]
		if e.expired(now) {
			continue
		}
		for _, p := range e.Patterns {
			if strings.Contains(folded, p) {
				return append([]string(nil), e.Answers...), true
			}
		}
	}
	return nil, false
}

// Insert adds a non-built-in entry that expires after ttl. A non-positive ttl
// uses the default of one day.
func (c *Cache) Insert(patterns, answers []string, ttl time.Duration) error {
	patterns = foldAll(patterns)
	answers = trimAll(answers)
	if len(patterns) == 0 || len(answers) == 0 {
		return ErrEmptyEntry
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(now)
	if c.dynamicCountLocked() >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries = append(c.entries, Entry{
		Patterns:  patterns,
		Answers:   answers,
		ExpiresAt: now.Add(ttl),
	})
	return nil
}

// Len reports the number of live entries, built-ins included.
func (c *Cache) Len() int {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (e Entry) expired(now time.Time) bool {
	return !e.BuiltIn && !now.Before(e.ExpiresAt)
}

func (c *Cache) sweepLocked(now time.Time) {
	kept := c.entries[:0]
	for _, e := range c.entries {
		if !e.expired(now) {
			kept = append(kept, e)
		}
	}
	c.entries = kept
}

func (c *Cache) dynamicCountLocked() int {
	n := 0
	for _, e := range c.entries {
		if !e.BuiltIn {
			n++
		}
	}
	return n
}

func (c *Cache) evictOldestLocked() {
	for i, e := range c.entries {
		if !e.BuiltIn {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := util.Fold(strings.TrimSpace(s)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
