// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package repository - offline first access to one remote entity collection
//
// reads probe the layers fastest first:
//
//   volatile -> bounded -> store -> remote
//
// and a hit on a slower layer is copied into every faster one.  Lists
// skip the volatile layer.
//
// writes go to the remote when online and fan out to all layers; when
// offline, or when the remote cannot be reached, the effect is
// synthesised locally and a pending mutation is queued in the store
// for the synchronise engine to replay through Replay.
//
// cache keys:
//
//   entity:<type>:<id>                        entity record
//   list:<type>:<page>:<size>:<search>        one list page
//
// entities created offline carry an id beginning "offline_" until
// their create is replayed, at which point every layer and every
// queued mutation is moved to the server assigned id.
package repository
