// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package repository

import (
	"context"

	"github.com/bitmark-inc/offlinecache/background"
	"github.com/bitmark-inc/offlinecache/network"
)

// Start - replay this entity type's queue whenever the client comes online
//
// does nothing without both a monitor and a Sync drainer
func (r *Repository[E]) Start() {
	if nil == r.monitor || nil == r.options.Sync {
		return
	}

	r.Lock()
	defer r.Unlock()

	if nil != r.background {
		return
	}
	processes := background.Processes{
		&reconnect[E]{repository: r},
	}
	r.background = background.Start(processes, nil)
}

// Stop - end the reconnect subscription
func (r *Repository[E]) Stop() {
	r.Lock()
	b := r.background
	r.background = nil
	r.Unlock()

	b.Stop()
}

type reconnect[E any] struct {
	repository *Repository[E]
}

func (p *reconnect[E]) Run(args interface{}, shutdown <-chan struct{}) {
	r := p.repository
	log := r.log

	log.Infof("%s: starting…", r.entityType)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-shutdown
		cancel()
	}()

	queue := r.monitor.Subscribe(10)
	defer queue.Release()

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
			if !ok || network.Offline != change.Previous || network.Offline == change.Current {
				continue loop
			}
			result, err := r.options.Sync.DrainEntity(ctx, r.entityType)
			if nil != err {
				log.Errorf("%s: reconnect drain error: %s", r.entityType, err)
			} else if result.Skipped {
				log.Debugf("%s: reconnect drain skipped", r.entityType)
			} else {
				log.Infof("%s: reconnect drain synced: %d  failed: %d", r.entityType, result.Synced, result.Failed)
			}
		}
	}

	log.Infof("%s: finished", r.entityType)
}
