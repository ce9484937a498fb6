// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus

import (
	"sync"

	"github.com/bitmark-inc/offlinecache/counter"
)

// internal constants
const (
	defaultQueueSize = 100
)

// Message - a command and its item
type Message struct {
	Command string
	Item    interface{}
}

// Bus - one broadcast channel with any number of listeners
type Bus struct {
	sync.RWMutex
	name      string
	listeners map[*Queue]struct{}
	closed    bool
	dropped   counter.Counter
}

// Queue - a single listener
type Queue struct {
	bus  *Bus
	c    chan Message
	once sync.Once
}

// New - create a bus
func New(name string) *Bus {
	return &Bus{
		name:      name,
		listeners: make(map[*Queue]struct{}),
	}
}

// Name - the name given when created
func (b *Bus) Name() string {
	return b.name
}

// Send - deliver to every current listener
//
// returns the number of listeners that received the message
func (b *Bus) Send(command string, item interface{}) int {
	b.RLock()
	defer b.RUnlock()

	if b.closed {
		return 0
	}

	m := Message{
		Command: command,
		Item:    item,
	}

	n := 0
	for q := range b.listeners {
		select {
		case q.c <- m:
			n += 1
		default:
			b.dropped.Increment()
		}
	}
	return n
}

// Subscribe - add a listener with a buffer of size messages
//
// size <= 0 selects a default buffer
func (b *Bus) Subscribe(size int) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	q := &Queue{
		bus: b,
		c:   make(chan Message, size),
	}

	b.Lock()
	defer b.Unlock()

	if b.closed {
		q.once.Do(func() { close(q.c) })
		return q
	}
	b.listeners[q] = struct{}{}
	return q
}

// Listeners - current number of listeners
func (b *Bus) Listeners() int {
	b.RLock()
	defer b.RUnlock()
	return len(b.listeners)
}

// Dropped - total messages not delivered because a listener was full
func (b *Bus) Dropped() uint64 {
	return b.dropped.Uint64()
}

// Close - release all listeners, later sends are ignored
func (b *Bus) Close() {
	b.Lock()
	defer b.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for q := range b.listeners {
		delete(b.listeners, q)
		q.once.Do(func() { close(q.c) })
	}
}

// Chan - channel to read from, closed on Release or when the bus closes
func (q *Queue) Chan() <-chan Message {
	return q.c
}

// Release - stop listening
func (q *Queue) Release() {
	b := q.bus
	b.Lock()
	defer b.Unlock()

	delete(b.listeners, q)
	q.once.Do(func() { close(q.c) })
}
