// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cache maintains the in-memory cache layers
//
//  ***** Layers *****
//
//  Layer       Bounded by                      Expiry          Eviction
//  |___ Volatile   capacity (entries)          never           lowest access score
//  |___ Bounded    capacity (entries)          per-entry TTL   least recently used
//
//  ***** Volatile *****
//
//  score = lastAccessed - accessCount × weight
//
//  the entry with the lowest score is evicted when a new key is
//  inserted at capacity, so a frequently read entry survives longer
//  than a recently written but never read one
//
//  ***** Bounded *****
//
//  index map[key] ──> slot in arena []node
//
//  head ⇄ node ⇄ node ⇄ … ⇄ tail       (head = most recently used)
//
//  nodes are addressed by slot number, a removed node's slot goes on
//  a free list and is reused by the next insert; a background sweep
//  purges expired entries that are never read again
//
// Both layers are safe for use from multiple goroutines; each guards
// its read-modify-write sequences with its own mutex.
package cache
