// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/offlinecache/fixtures"
	"github.com/bitmark-inc/offlinecache/network"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func TestTrackerStartsOnline(t *testing.T) {
	tracker := network.NewTracker(logger.New("network"), 0)
	defer tracker.Close()

	assert.True(t, tracker.IsOnline(), "wrong initial reading")
	assert.Equal(t, network.Online, tracker.Status(), "wrong initial status")
}

func TestTrackerClassification(t *testing.T) {
	tests := []struct {
		online  bool
		quality *network.Quality
		status  network.Status
	}{
		{false, nil, network.Offline},
		{false, &network.Quality{EffectiveType: "4g"}, network.Offline},
		{true, nil, network.Online},
		{true, &network.Quality{EffectiveType: "4g", RTT: 50 * time.Millisecond}, network.Online},
		{true, &network.Quality{EffectiveType: "2g"}, network.Slow},
		{true, &network.Quality{EffectiveType: "slow-2g"}, network.Slow},
		{true, &network.Quality{RTT: 1500 * time.Millisecond}, network.Slow},
		{true, &network.Quality{RTT: time.Second}, network.Online},
	}

	tracker := network.NewTracker(logger.New("network"), time.Second)
	defer tracker.Close()

	for i, test := range tests {
		assert.Equal(t, test.status, tracker.Report(test.online, test.quality), "%d: wrong status", i)
		assert.Equal(t, network.Offline != test.status, tracker.IsOnline(), "%d: wrong online", i)
	}
}

func TestTrackerNotifiesTransitionsOnly(t *testing.T) {
	tracker := network.NewTracker(logger.New("network"), time.Second)
	defer tracker.Close()

	queue := tracker.Subscribe(10)
	defer queue.Release()

	tracker.Report(true, nil)
	tracker.Report(false, nil)
	tracker.Report(false, nil)
	tracker.Report(true, &network.Quality{EffectiveType: "2g"})
	tracker.Report(true, nil)

	expected := []network.Change{
		{Previous: network.Online, Current: network.Offline},
		{Previous: network.Offline, Current: network.Slow},
		{Previous: network.Slow, Current: network.Online},
	}
	for i, e := range expected {
		select {
		case m := <-queue.Chan():
			assert.Equal(t, network.StatusCommand, m.Command, "%d: wrong command", i)
			assert.Equal(t, e, m.Item, "%d: wrong change", i)
		default:
			require.FailNow(t, "missing change", "%d", i)
		}
	}

	select {
	case m := <-queue.Chan():
		assert.Fail(t, "unexpected change", "%v", m)
	default:
	}
}
