// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package synchronise

import (
	"context"
	"time"

	"github.com/bitmark-inc/offlinecache/background"
	"github.com/bitmark-inc/offlinecache/network"
)

// Start - drain on reconnection and periodically while work remains
func (e *Engine) Start() {
	e.Lock()
	defer e.Unlock()

	if nil != e.background {
		return
	}
	processes := background.Processes{
		&loop{engine: e},
	}
	e.background = background.Start(processes, nil)
}

// Stop - end the background loop, waiting for a running drain
func (e *Engine) Stop() {
	e.Lock()
	b := e.background
	e.background = nil
	e.Unlock()

	b.Stop()
}

type loop struct {
	engine *Engine
}

func (l *loop) Run(args interface{}, shutdown <-chan struct{}) {
	e := l.engine
	log := e.log

	log.Info("starting…")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// mutations left mid-replay by an earlier process
	if n, err := e.queue.ResetProcessing(ctx); nil != err {
		log.Errorf("reset processing: error: %s", err)
	} else if n > 0 {
		log.Warnf("reset processing: %d", n)
	}

	queue := e.monitor.Subscribe(10)
	defer queue.Release()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	drain := func() {
		done := make(chan struct{})
		go func() {
			select {
			case <-shutdown:
				cancel()
			case <-done:
			}
		}()
		_, _ = e.Drain(ctx)
		close(done)
	}

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case item, ok := <-queue.Chan():
			if !ok {
				break loop
			}
			change, ok := item.Item.(network.Change)
			if ok && network.Offline == change.Previous && network.Offline != change.Current {
				log.Info("online: draining")
				drain()
			}

		case <-ticker.C:
			if nil != e.sweeper {
				if n, err := e.sweeper.CleanupExpiredCache(ctx); nil != err {
					log.Errorf("cleanup expired cache: error: %s", err)
				} else if n > 0 {
					log.Debugf("cleanup expired cache: %d", n)
				}
			}
			if !e.monitor.IsOnline() {
				continue loop
			}
			n, err := e.queue.GetPendingCount(ctx)
			if nil != err {
				log.Errorf("pending count: error: %s", err)
				continue loop
			}
			if n > 0 {
				drain()
			}
		}
	}

	log.Info("finished")
}
