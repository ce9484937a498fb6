// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/offlinecache/messagebus"
)

// Status - connectivity as seen by the client
type Status string

// possible states
const (
	Online  Status = "online"
	Offline Status = "offline"
	Slow    Status = "slow"
)

// StatusCommand - message bus command carrying a Change
const StatusCommand = "status"

// DefaultSlowRTT - round trip above which the link counts as slow
const DefaultSlowRTT = 2 * time.Second

// Quality - optional link measurements
type Quality struct {
	EffectiveType string        // e.g. "4g", "3g", "2g", "slow-2g"
	RTT           time.Duration // zero if unknown
}

// Change - item sent on each transition
type Change struct {
	Previous Status
	Current  Status
}

// Monitor - the connectivity signal consumed by repositories and the sync engine
type Monitor interface {
	IsOnline() bool
	Status() Status
	Subscribe(size int) *messagebus.Queue
}

// Reporter - accepts connectivity observations
type Reporter interface {
	Report(online bool, quality *Quality) Status
}

// Tracker - Monitor driven by explicit reports
type Tracker struct {
	sync.RWMutex
	log     *logger.L
	status  Status
	slowRTT time.Duration
	bus     *messagebus.Bus
}

// NewTracker - start online, as nothing is known yet
func NewTracker(log *logger.L, slowRTT time.Duration) *Tracker {
	if slowRTT <= 0 {
		slowRTT = DefaultSlowRTT
	}
	return &Tracker{
		log:     log,
		status:  Online,
		slowRTT: slowRTT,
		bus:     messagebus.New("network"),
	}
}

// IsOnline - true when requests can be expected to reach the server
func (t *Tracker) IsOnline() bool {
	return Offline != t.Status()
}

// Status - current status
func (t *Tracker) Status() Status {
	t.RLock()
	defer t.RUnlock()
	return t.status
}

// Subscribe - receive a Change for every transition
func (t *Tracker) Subscribe(size int) *messagebus.Queue {
	return t.bus.Subscribe(size)
}

// Report - record an observation, returns the resulting status
func (t *Tracker) Report(online bool, quality *Quality) Status {
	next := t.classify(online, quality)

	t.Lock()
	previous := t.status
	t.status = next

	// send while locked so listeners see transitions in order
	if previous != next {
		t.log.Infof("status: %s -> %s", previous, next)
		t.bus.Send(StatusCommand, Change{Previous: previous, Current: next})
	}
	t.Unlock()

	return next
}

// Close - release all subscribers
func (t *Tracker) Close() {
	t.bus.Close()
}

func (t *Tracker) classify(online bool, quality *Quality) Status {
	if !online {
		return Offline
	}
	if nil == quality {
		return Online
	}
	switch quality.EffectiveType {
	case "slow-2g", "2g":
		return Slow
	}
	if quality.RTT > t.slowRTT {
		return Slow
	}
	return Online
}
