// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package synchronise

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/offlinecache/background"
	"github.com/bitmark-inc/offlinecache/counter"
	"github.com/bitmark-inc/offlinecache/fault"
	"github.com/bitmark-inc/offlinecache/messagebus"
	"github.com/bitmark-inc/offlinecache/network"
	"github.com/bitmark-inc/offlinecache/pending"
)

// DefaultInterval - retry cadence while mutations are waiting
const DefaultInterval = 30 * time.Second

// Options - engine parameters
type Options struct {
	Interval time.Duration
	Sweeper  Sweeper // optional
}

// Engine - drains the mutation queue
type Engine struct {
	sync.Mutex
	log      *logger.L
	queue    Queue
	monitor  network.Monitor
	bus      *messagebus.Bus
	interval time.Duration
	sweeper  Sweeper

	handlers map[string]Handler
	state    State

	synced counter.Counter
	failed counter.Counter

	background *background.T
}

// New - create an idle engine
func New(log *logger.L, queue Queue, monitor network.Monitor, bus *messagebus.Bus, options Options) *Engine {
	if options.Interval <= 0 {
		options.Interval = DefaultInterval
	}
	return &Engine{
		log:      log,
		queue:    queue,
		monitor:  monitor,
		bus:      bus,
		interval: options.Interval,
		sweeper:  options.Sweeper,
		handlers: make(map[string]Handler),
		state:    Idle,
	}
}

// Register - set the handler for an entity type
func (e *Engine) Register(entityType string, handler Handler) error {
	if "" == entityType {
		return fault.ErrMissingEntityType
	}

	e.Lock()
	defer e.Unlock()

	if _, ok := e.handlers[entityType]; ok {
		return fault.ErrHandlerAlreadyExists
	}
	e.handlers[entityType] = handler
	return nil
}

// State - outcome of the last drain, or Syncing while one runs
func (e *Engine) State() State {
	e.Lock()
	defer e.Unlock()
	return e.state
}

// Synced - total mutations replayed successfully
func (e *Engine) Synced() uint64 {
	return e.synced.Uint64()
}

// Failed - total mutations that became failed
func (e *Engine) Failed() uint64 {
	return e.failed.Uint64()
}

// Drain - replay every pending mutation, oldest first
func (e *Engine) Drain(ctx context.Context) (Result, error) {
	return e.drain(ctx, "", e.queue.GetPendingOperations)
}

// DrainEntity - replay the pending mutations of one entity type
func (e *Engine) DrainEntity(ctx context.Context, entityType string) (Result, error) {
	return e.drain(ctx, entityType, func(ctx context.Context) ([]*pending.Mutation, error) {
		return e.queue.GetPendingOperationsByEntity(ctx, entityType)
	})
}

func (e *Engine) drain(ctx context.Context, entityType string, fetch func(context.Context) ([]*pending.Mutation, error)) (Result, error) {
	result := Result{EntityType: entityType}

	e.Lock()
	if Syncing == e.state {
		e.Unlock()
		result.Skipped = true
		return result, nil
	}
	e.state = Syncing
	e.Unlock()

	e.send(StartedCommand, result)

	err := e.run(ctx, fetch, &result)

	e.Lock()
	if nil != err || result.Retried > 0 || result.Failed > 0 {
		e.state = Failed
	} else {
		e.state = Success
	}
	e.Unlock()

	if nil != err {
		e.log.Errorf("drain: %q  error: %s", entityType, err)
		e.send(FailedCommand, result)
		return result, err
	}

	if result.Processed > 0 {
		e.log.Infof("drain: %q  synced: %d  retried: %d  failed: %d", entityType, result.Synced, result.Retried, result.Failed)
	}
	e.send(CompletedCommand, result)
	return result, nil
}

func (e *Engine) run(ctx context.Context, fetch func(context.Context) ([]*pending.Mutation, error), result *Result) error {
	ms, err := fetch(ctx)
	if nil != err {
		return err
	}

	for _, m := range ms {
		if err := ctx.Err(); nil != err {
			return err
		}
		if pending.StatusPending != m.Status {
			continue
		}
		err := e.replay(ctx, m.ID, result)
		if nil != err {
			return err
		}
	}
	return nil
}

// an error return means the queue itself failed
func (e *Engine) replay(ctx context.Context, id uint64, result *Result) error {

	// an earlier replay in this drain may have changed or removed it
	m, err := e.queue.GetPendingOperation(ctx, id)
	if nil != err {
		return err
	}
	if nil == m || pending.StatusPending != m.Status {
		return nil
	}

	claim := pending.Processing()
	err = e.queue.UpdatePendingOperation(ctx, id, claim)
	if nil != err {
		return err
	}
	_ = m.Apply(claim)

	result.Processed += 1

	e.Lock()
	handler, ok := e.handlers[m.EntityType]
	e.Unlock()

	if ok {
		e.log.Debugf("replay: %d  %s %s: %s", id, m.Kind(), m.EntityType, m.EntityID)
		err = handler.Replay(ctx, m)
	} else {
		err = fmt.Errorf("%w: %q", fault.ErrNoHandler, m.EntityType)
	}

	if nil == err {
		err = e.queue.DeletePendingOperation(ctx, id)
		if nil != err {
			return err
		}
		result.Synced += 1
		e.synced.Increment()
		return nil
	}

	// interrupted, not failed: back to the queue without using an attempt
	if cancelled := ctx.Err(); nil != cancelled {
		e.log.Infof("replay: %d  %s %s: %s  interrupted: %s", id, m.Kind(), m.EntityType, m.EntityID, cancelled)
		resetErr := e.queue.UpdatePendingOperation(context.WithoutCancel(ctx), id, pending.Reset())
		if nil != resetErr {
			return resetErr
		}
		return cancelled
	}

	change := m.Failure(err.Error())
	updateErr := e.queue.UpdatePendingOperation(ctx, id, change)
	if nil != updateErr {
		return updateErr
	}

	if pending.StatusFailed == *change.Status {
		e.log.Errorf("replay: %d  %s %s: %s  failed after: %d attempts  error: %s", id, m.Kind(), m.EntityType, m.EntityID, *change.Attempts, err)
		result.Failed += 1
		e.failed.Increment()
	} else {
		e.log.Warnf("replay: %d  %s %s: %s  attempt: %d  error: %s", id, m.Kind(), m.EntityType, m.EntityID, *change.Attempts, err)
		result.Retried += 1
	}
	return nil
}

func (e *Engine) send(command string, result Result) {
	if nil != e.bus {
		e.bus.Send(command, result)
	}
}
