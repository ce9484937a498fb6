// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/offlinecache/background"
	"github.com/bitmark-inc/offlinecache/fault"
)

// defaults for the bounded layer
const (
	DefaultBoundedCapacity = 500
	DefaultTTL             = 5 * time.Minute
)

// marks the absence of a node
const nilSlot = -1

// BoundedOptions - construction parameters
type BoundedOptions struct {
	Capacity      int
	DefaultTTL    time.Duration
	SweepInterval time.Duration
	Clock         Clock
}

// Entry - a cached value with its timestamps
type Entry[V any] struct {
	Value     V
	CreatedAt time.Time
	ExpiresAt time.Time
}

type node[V any] struct {
	key   string
	entry Entry[V]
	prev  int
	next  int
}

// Bounded - fixed capacity LRU cache with per-entry expiry
type Bounded[V any] struct {
	sync.Mutex
	capacity      int
	defaultTTL    time.Duration
	sweepInterval time.Duration
	clock         Clock

	nodes []node[V] // arena, addressed by slot
	free  []int     // slots available for reuse
	index map[string]int
	head  int
	tail  int

	hits      uint64
	misses    uint64
	evictions uint64
	expired   uint64

	background *background.T
}

// NewBounded - create an empty bounded layer
func NewBounded[V any](options BoundedOptions) (*Bounded[V], error) {
	if options.Capacity < 0 {
		return nil, fault.ErrInvalidCapacity
	}
	if 0 == options.Capacity {
		options.Capacity = DefaultBoundedCapacity
	}
	if options.DefaultTTL <= 0 {
		options.DefaultTTL = DefaultTTL
	}
	if options.SweepInterval <= 0 {
		options.SweepInterval = defaultSweepInterval
	}
	if nil == options.Clock {
		options.Clock = time.Now
	}

	c := &Bounded[V]{
		capacity:      options.Capacity,
		defaultTTL:    options.DefaultTTL,
		sweepInterval: options.SweepInterval,
		clock:         options.Clock,
	}
	c.reset()
	return c, nil
}

// must hold lock, or be called before the cache is shared
func (c *Bounded[V]) reset() {
	c.nodes = make([]node[V], 0, c.capacity)
	c.free = nil
	c.index = make(map[string]int, c.capacity)
	c.head = nilSlot
	c.tail = nilSlot
}

// Start - begin the periodic sweep of expired entries
func (c *Bounded[V]) Start() {
	c.Lock()
	defer c.Unlock()

	if nil != c.background {
		return
	}
	processes := background.Processes{
		&cleaner{target: c, interval: c.sweepInterval},
	}
	c.background = background.Start(processes, nil)
}

// Stop - end the periodic sweep
func (c *Bounded[V]) Stop() {
	c.Lock()
	b := c.background
	c.background = nil
	c.Unlock()

	b.Stop()
}

// Get - read a live value and mark it most recently used
//
// an expired entry is removed and counts as a miss
func (c *Bounded[V]) Get(key string) (V, bool) {
	c.Lock()
	defer c.Unlock()

	var zero V

	slot, ok := c.index[key]
	if !ok {
		c.misses += 1
		return zero, false
	}

	if expired(c.nodes[slot].entry.ExpiresAt, c.clock()) {
		c.remove(slot)
		c.expired += 1
		c.misses += 1
		return zero, false
	}

	c.moveToFront(slot)
	c.hits += 1
	return c.nodes[slot].entry.Value, true
}

// Set - store a value with the default TTL
func (c *Bounded[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL - store a value that expires after ttl (<= 0 selects the default)
func (c *Bounded[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.Lock()
	defer c.Unlock()

	now := c.clock()
	entry := Entry[V]{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if slot, ok := c.index[key]; ok {
		c.nodes[slot].entry = entry
		c.moveToFront(slot)
		return
	}

	if len(c.index) >= c.capacity {
		c.remove(c.tail)
		c.evictions += 1
	}

	slot := c.allocate()
	c.nodes[slot] = node[V]{
		key:   key,
		entry: entry,
		prev:  nilSlot,
		next:  nilSlot,
	}
	c.index[key] = slot
	c.pushFront(slot)
}

// Has - check for a live entry without changing recency
func (c *Bounded[V]) Has(key string) bool {
	c.Lock()
	defer c.Unlock()

	slot, ok := c.index[key]
	if !ok {
		return false
	}
	if expired(c.nodes[slot].entry.ExpiresAt, c.clock()) {
		c.remove(slot)
		c.expired += 1
		return false
	}
	return true
}

// Delete - remove a key, true if it was present
func (c *Bounded[V]) Delete(key string) bool {
	c.Lock()
	defer c.Unlock()

	slot, ok := c.index[key]
	if !ok {
		return false
	}
	c.remove(slot)
	return true
}

// ClearByPrefix - remove every key starting with prefix
func (c *Bounded[V]) ClearByPrefix(prefix string) int {
	c.Lock()
	defer c.Unlock()

	n := 0
	for key, slot := range c.index {
		if strings.HasPrefix(key, prefix) {
			c.remove(slot)
			n += 1
		}
	}
	return n
}

// Clear - remove everything and reset the statistics
func (c *Bounded[V]) Clear() {
	c.Lock()
	defer c.Unlock()

	c.reset()
	c.hits = 0
	c.misses = 0
	c.evictions = 0
	c.expired = 0
}

// GetTTL - time remaining before a live entry expires
func (c *Bounded[V]) GetTTL(key string) (time.Duration, bool) {
	c.Lock()
	defer c.Unlock()

	slot, ok := c.index[key]
	if !ok {
		return 0, false
	}
	now := c.clock()
	expiresAt := c.nodes[slot].entry.ExpiresAt
	if expired(expiresAt, now) {
		c.remove(slot)
		c.expired += 1
		return 0, false
	}
	return expiresAt.Sub(now), true
}

// Touch - extend a live entry's expiry to now + ttl (<= 0 selects the default)
//
// recency is not changed, and the expiry never moves backwards
func (c *Bounded[V]) Touch(key string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.Lock()
	defer c.Unlock()

	slot, ok := c.index[key]
	if !ok {
		return false
	}
	now := c.clock()
	entry := &c.nodes[slot].entry
	if expired(entry.ExpiresAt, now) {
		c.remove(slot)
		c.expired += 1
		return false
	}
	if expiresAt := now.Add(ttl); expiresAt.After(entry.ExpiresAt) {
		entry.ExpiresAt = expiresAt
	}
	return true
}

// PurgeExpired - remove all expired entries, returns the number removed
func (c *Bounded[V]) PurgeExpired() int {
	c.Lock()
	defer c.Unlock()

	now := c.clock()
	n := 0
	for slot := c.head; nilSlot != slot; {
		next := c.nodes[slot].next
		if expired(c.nodes[slot].entry.ExpiresAt, now) {
			c.remove(slot)
			n += 1
		}
		slot = next
	}
	c.expired += uint64(n)
	return n
}

// Keys - live keys, most recently used first
func (c *Bounded[V]) Keys() []string {
	c.Lock()
	defer c.Unlock()

	now := c.clock()
	keys := make([]string, 0, len(c.index))
	for slot := c.head; nilSlot != slot; slot = c.nodes[slot].next {
		if !expired(c.nodes[slot].entry.ExpiresAt, now) {
			keys = append(keys, c.nodes[slot].key)
		}
	}
	return keys
}

// Size - number of entries held, expired entries not yet purged included
func (c *Bounded[V]) Size() int {
	c.Lock()
	defer c.Unlock()
	return len(c.index)
}

// Capacity - maximum number of entries
func (c *Bounded[V]) Capacity() int {
	return c.capacity
}

// Stats - snapshot of the running totals
func (c *Bounded[V]) Stats() Stats {
	c.Lock()
	defer c.Unlock()

	return Stats{
		Size:      len(c.index),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Expired:   c.expired,
		HitRate:   hitRate(c.hits, c.misses),
	}
}

// list and arena maintenance - all must hold lock

func (c *Bounded[V]) allocate() int {
	if n := len(c.free); n > 0 {
		slot := c.free[n-1]
		c.free = c.free[:n-1]
		return slot
	}
	c.nodes = append(c.nodes, node[V]{prev: nilSlot, next: nilSlot})
	return len(c.nodes) - 1
}

func (c *Bounded[V]) pushFront(slot int) {
	n := &c.nodes[slot]
	n.prev = nilSlot
	n.next = c.head
	if nilSlot != c.head {
		c.nodes[c.head].prev = slot
	}
	c.head = slot
	if nilSlot == c.tail {
		c.tail = slot
	}
}

func (c *Bounded[V]) unlink(slot int) {
	n := &c.nodes[slot]
	if nilSlot != n.prev {
		c.nodes[n.prev].next = n.next
	} else {
		c.head = n.next
	}
	if nilSlot != n.next {
		c.nodes[n.next].prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev = nilSlot
	n.next = nilSlot
}

func (c *Bounded[V]) moveToFront(slot int) {
	if c.head == slot {
		return
	}
	c.unlink(slot)
	c.pushFront(slot)
}

func (c *Bounded[V]) remove(slot int) {
	c.unlink(slot)
	delete(c.index, c.nodes[slot].key)
	c.nodes[slot] = node[V]{prev: nilSlot, next: nilSlot}
	c.free = append(c.free, slot)
}
