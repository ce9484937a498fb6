// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/offlinecache/fault"
)

// defaults for the volatile layer
const (
	DefaultVolatileCapacity = 100
	DefaultVolatileWeight   = time.Second
)

// VolatileOptions - construction parameters
type VolatileOptions struct {
	Capacity int
	Weight   time.Duration // recency credit for each access
	Clock    Clock
}

type volatileItem[V any] struct {
	value        V
	accessCount  uint64
	lastAccessed time.Time
}

// Volatile - session-only cache without expiry
type Volatile[V any] struct {
	sync.Mutex
	capacity  int
	weight    time.Duration
	clock     Clock
	items     map[string]*volatileItem[V]
	hits      uint64
	misses    uint64
	evictions uint64
}

// NewVolatile - create an empty volatile layer
func NewVolatile[V any](options VolatileOptions) (*Volatile[V], error) {
	if options.Capacity < 0 {
		return nil, fault.ErrInvalidCapacity
	}
	if 0 == options.Capacity {
		options.Capacity = DefaultVolatileCapacity
	}
	if options.Weight <= 0 {
		options.Weight = DefaultVolatileWeight
	}
	if nil == options.Clock {
		options.Clock = time.Now
	}

	return &Volatile[V]{
		capacity: options.Capacity,
		weight:   options.Weight,
		clock:    options.Clock,
		items:    make(map[string]*volatileItem[V], options.Capacity),
	}, nil
}

// Get - read a value and record the access
func (c *Volatile[V]) Get(key string) (V, bool) {
	c.Lock()
	defer c.Unlock()

	item, ok := c.items[key]
	if !ok {
		c.misses += 1
		var zero V
		return zero, false
	}

	c.hits += 1
	item.accessCount += 1
	item.lastAccessed = c.clock()
	return item.value, true
}

// Set - store a value, evicting the lowest scored entry if full
func (c *Volatile[V]) Set(key string, value V) {
	c.Lock()
	defer c.Unlock()

	now := c.clock()

	if item, ok := c.items[key]; ok {
		item.value = value
		item.accessCount += 1
		item.lastAccessed = now
		return
	}

	if len(c.items) >= c.capacity {
		c.evict()
	}

	c.items[key] = &volatileItem[V]{
		value:        value,
		accessCount:  1,
		lastAccessed: now,
	}
}

// remove the entry with the lowest score, ties go to the smaller key
//
// must hold lock
func (c *Volatile[V]) evict() {
	victim := ""
	var lowest int64
	first := true

	for key, item := range c.items {
		s := c.score(item)
		if first || s < lowest || (s == lowest && key < victim) {
			victim = key
			lowest = s
			first = false
		}
	}

	if !first {
		delete(c.items, victim)
		c.evictions += 1
	}
}

func (c *Volatile[V]) score(item *volatileItem[V]) int64 {
	return item.lastAccessed.UnixNano() - int64(item.accessCount)*int64(c.weight)
}

// Has - check presence without recording an access
func (c *Volatile[V]) Has(key string) bool {
	c.Lock()
	defer c.Unlock()

	_, ok := c.items[key]
	return ok
}

// Delete - remove a key, true if it was present
func (c *Volatile[V]) Delete(key string) bool {
	c.Lock()
	defer c.Unlock()

	if _, ok := c.items[key]; !ok {
		return false
	}
	delete(c.items, key)
	return true
}

// ClearByPrefix - remove every key starting with prefix
func (c *Volatile[V]) ClearByPrefix(prefix string) int {
	c.Lock()
	defer c.Unlock()

	n := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			n += 1
		}
	}
	return n
}

// Clear - remove everything and reset the statistics
func (c *Volatile[V]) Clear() {
	c.Lock()
	defer c.Unlock()

	c.items = make(map[string]*volatileItem[V], c.capacity)
	c.hits = 0
	c.misses = 0
	c.evictions = 0
}

// Size - number of entries
func (c *Volatile[V]) Size() int {
	c.Lock()
	defer c.Unlock()
	return len(c.items)
}

// Stats - snapshot of the running totals
func (c *Volatile[V]) Stats() Stats {
	c.Lock()
	defer c.Unlock()

	return Stats{
		Size:      len(c.items),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate(c.hits, c.misses),
	}
}
