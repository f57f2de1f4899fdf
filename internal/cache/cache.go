// Package cache implements the relay's TTL-aware LRU cache: a
// (domain, qtype) -> IP mapping populated from upstream answers, checked
// before every forward and swept for expired entries by the dispatcher at
// its cache-sweep interval.
package cache

import (
	"container/list"
	"net/netip"
	"time"
)

// Key identifies a cached answer. The original relay this is modeled on
// built its cache key by concatenating domain and qtype into one string
// and then, in one code path, accidentally indexed its hash table by the
// domain field alone — a latent bug this type structurally rules out by
// making both fields part of the key's identity instead of folding them
// into a single ambiguous string field.
type Key struct {
	Domain string
	QType  uint16
}

// Entry is one cached answer.
type Entry struct {
	IP         netip.Addr
	TTL        uint32 // raw upstream TTL, stored without clamping
	InsertedAt time.Time
}

func (e Entry) expired(now time.Time) bool {
	return now.Sub(e.InsertedAt) >= time.Duration(e.TTL)*time.Second
}

type node struct {
	key   Key
	entry Entry
}

// Cache is an insertion/access-ordered LRU cache bounded by MaxEntries.
// It is designed to be owned and mutated exclusively by one goroutine (the
// dispatcher); it performs no internal locking.
type Cache struct {
	MaxEntries int

	ll    *list.List
	items map[Key]*list.Element

	Hits    uint64
	Misses  uint64
	Expired uint64
	Evicted uint64
}

// New creates a cache holding at most maxEntries entries.
func New(maxEntries int) *Cache {
	return &Cache{
		MaxEntries: maxEntries,
		ll:         list.New(),
		items:      make(map[Key]*list.Element),
	}
}

// Get looks up key. A hit touches the entry to the front of the LRU list;
// an entry found but expired is treated as a miss and evicted lazily.
func (c *Cache) Get(key Key, now time.Time) (Entry, bool) {
	el, ok := c.items[key]
	if !ok {
		c.Misses++
		return Entry{}, false
	}
	n := el.Value.(*node)
	if n.entry.expired(now) {
		c.removeElement(el)
		c.Expired++
		c.Misses++
		return Entry{}, false
	}
	c.ll.MoveToFront(el)
	c.Hits++
	return n.entry, true
}

// Set inserts or updates key's entry, evicting the least-recently-used
// entry if the cache is at capacity and key is new.
func (c *Cache) Set(key Key, entry Entry) {
	if el, ok := c.items[key]; ok {
		el.Value.(*node).entry = entry
		c.ll.MoveToFront(el)
		return
	}

	if c.MaxEntries > 0 && len(c.items) >= c.MaxEntries {
		c.evictOldest()
	}

	el := c.ll.PushFront(&node{key: key, entry: entry})
	c.items[key] = el
}

func (c *Cache) evictOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.removeElement(el)
	c.Evicted++
}

func (c *Cache) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*node).key)
}

// Sweep removes every entry that has expired as of now. The dispatcher
// calls it from its tick whenever its cache-sweep interval has elapsed, so
// expired entries don't linger purely because nothing happens to look them
// up.
func (c *Cache) Sweep(now time.Time) {
	var next *list.Element
	for el := c.ll.Back(); el != nil; el = next {
		next = el.Prev()
		n := el.Value.(*node)
		if n.entry.expired(now) {
			c.removeElement(el)
			c.Expired++
		}
	}
}

// Len reports the current number of entries, expired or not.
func (c *Cache) Len() int {
	return len(c.items)
}

// Stats is a point-in-time copy of the cache's counters, for the admin
// API's /stats endpoint and the audit store's periodic snapshots.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Expired uint64
	Evicted uint64
	Size    int
	MaxSize int
	HitRate float64
}

// Stats snapshots the cache's hit/miss/expiry/eviction counters and
// computes the hit rate (hits / (hits+misses), or 0 when nothing has been
// looked up yet).
func (c *Cache) Stats() Stats {
	total := c.Hits + c.Misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.Hits) / float64(total)
	}
	return Stats{
		Hits:    c.Hits,
		Misses:  c.Misses,
		Expired: c.Expired,
		Evicted: c.Evicted,
		Size:    len(c.items),
		MaxSize: c.MaxEntries,
		HitRate: hitRate,
	}
}
