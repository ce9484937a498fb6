// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package synchronise

import (
	"context"

	"github.com/bitmark-inc/offlinecache/pending"
)

// State - outcome of the most recent drain
type State int

// drain states
const (
	Idle State = iota
	Syncing
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Syncing:
		return "syncing"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// event commands sent on the bus
const (
	StartedCommand   = "sync-started"
	CompletedCommand = "sync-completed"
	FailedCommand    = "sync-failed"
)

// Result - totals for one drain
type Result struct {
	EntityType string `json:"entityType,omitempty"` // empty for a full drain
	Processed  int    `json:"processed"`
	Synced     int    `json:"synced"`
	Retried    int    `json:"retried"`
	Failed     int    `json:"failed"`
	Skipped    bool   `json:"skipped"`
}

// Handler - replays one mutation against the remote service
type Handler interface {
	Replay(ctx context.Context, mutation *pending.Mutation) error
}

// HandlerFunc - adapt a function to Handler
type HandlerFunc func(ctx context.Context, m *pending.Mutation) error

// Replay - call f
func (f HandlerFunc) Replay(ctx context.Context, m *pending.Mutation) error {
	return f(ctx, m)
}

// Queue - the durable mutation queue
type Queue interface {
	GetPendingOperations(ctx context.Context) ([]*pending.Mutation, error)
	GetPendingOperationsByEntity(ctx context.Context, entityType string) ([]*pending.Mutation, error)
	GetPendingOperation(ctx context.Context, id uint64) (*pending.Mutation, error)
	UpdatePendingOperation(ctx context.Context, id uint64, change pending.Change) error
	DeletePendingOperation(ctx context.Context, id uint64) error
	GetPendingCount(ctx context.Context) (int, error)
	ResetProcessing(ctx context.Context) (int, error)
}

// Sweeper - removes expired durable cache entries
type Sweeper interface {
	CleanupExpiredCache(ctx context.Context) (int, error)
}
