// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package synchronise_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/offlinecache/fault"
	"github.com/bitmark-inc/offlinecache/fixtures"
	"github.com/bitmark-inc/offlinecache/messagebus"
	"github.com/bitmark-inc/offlinecache/network"
	"github.com/bitmark-inc/offlinecache/pending"
	"github.com/bitmark-inc/offlinecache/storage"
	"github.com/bitmark-inc/offlinecache/synchronise"
	"github.com/bitmark-inc/offlinecache/synchronise/mocks"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

type setup struct {
	store   *storage.Store
	tracker *network.Tracker
	bus     *messagebus.Bus
	engine  *synchronise.Engine
}

func newSetup(t *testing.T, interval time.Duration) *setup {
	store := storage.New(logger.New("storage"), filepath.Join(t.TempDir(), "db"))
	tracker := network.NewTracker(logger.New("network"), time.Second)
	bus := messagebus.New("events")
	engine := synchronise.New(logger.New("synchronise"), store, tracker, bus, synchronise.Options{
		Interval: interval,
		Sweeper:  store,
	})
	t.Cleanup(func() {
		engine.Stop()
		tracker.Close()
		bus.Close()
		_ = store.Close()
	})
	return &setup{store: store, tracker: tracker, bus: bus, engine: engine}
}

func (s *setup) enqueue(t *testing.T, entityType string, n int, maxAttempts int) {
	for i := 0; i < n; i += 1 {
		m := pending.New(entityType, "id", pending.UpdatePayload{Fields: pending.Fields{"n": i}}, maxAttempts, time.Time{})
		_, err := s.store.AddPendingOperation(context.Background(), m)
		require.Nil(t, err, "wrong enqueue")
	}
}

func TestDrainAllSucceed(t *testing.T) {
	s := newSetup(t, time.Hour)
	ctx := context.Background()

	seen := []int{}
	err := s.engine.Register("user", synchronise.HandlerFunc(func(ctx context.Context, m *pending.Mutation) error {
		assert.Equal(t, pending.StatusProcessing, m.Status, "not claimed before replay")
		n := m.Payload.(pending.UpdatePayload).Fields["n"].(float64)
		seen = append(seen, int(n))
		return nil
	}))
	require.Nil(t, err, "wrong register")

	s.enqueue(t, "user", 5, 3)

	events := s.bus.Subscribe(10)
	defer events.Release()

	result, err := s.engine.Drain(ctx)
	require.Nil(t, err, "wrong drain")
	assert.Equal(t, 5, result.Synced, "wrong synced")
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen, "not replayed in creation order")
	assert.Equal(t, uint64(5), s.engine.Synced(), "wrong synced total")
	assert.Equal(t, synchronise.Success, s.engine.State(), "wrong state")

	all, _ := s.store.GetPendingOperations(ctx)
	assert.Empty(t, all, "queue not empty")

	assert.Equal(t, synchronise.StartedCommand, (<-events.Chan()).Command, "wrong first event")
	completed := <-events.Chan()
	assert.Equal(t, synchronise.CompletedCommand, completed.Command, "wrong second event")
	assert.Equal(t, result, completed.Item, "wrong event result")
}

func TestDrainAlwaysFailing(t *testing.T) {
	s := newSetup(t, time.Hour)
	ctx := context.Background()

	err := s.engine.Register("user", synchronise.HandlerFunc(func(ctx context.Context, m *pending.Mutation) error {
		return fault.NewRemoteError(fault.Server, 500, "down", nil)
	}))
	require.Nil(t, err, "wrong register")

	const maxAttempts = 3
	s.enqueue(t, "user", 2, maxAttempts)

	for i := 1; i < maxAttempts; i += 1 {
		result, err := s.engine.Drain(ctx)
		require.Nil(t, err, "wrong drain")
		assert.Equal(t, 2, result.Retried, "drain %d: wrong retried", i)
		assert.Zero(t, result.Failed, "drain %d: failed too early", i)
		assert.Equal(t, synchronise.Failed, s.engine.State(), "wrong state")
	}

	result, err := s.engine.Drain(ctx)
	require.Nil(t, err, "wrong drain")
	assert.Equal(t, 2, result.Failed, "wrong failed")
	assert.Equal(t, uint64(2), s.engine.Failed(), "wrong failed total")

	all, _ := s.store.GetPendingOperations(ctx)
	require.Len(t, all, 2, "failed mutations deleted")
	for _, m := range all {
		assert.Equal(t, pending.StatusFailed, m.Status, "wrong status")
		assert.Equal(t, maxAttempts, m.Attempts, "wrong attempts")
		assert.Contains(t, m.LastError, "down", "wrong last error")
	}

	// failed mutations are never retried
	result, err = s.engine.Drain(ctx)
	require.Nil(t, err, "wrong drain")
	assert.Zero(t, result.Processed, "failed mutation replayed")
}

func TestDrainInterruptedKeepsAttempts(t *testing.T) {
	s := newSetup(t, time.Hour)

	interrupt := true
	started := make(chan struct{})
	err := s.engine.Register("user", synchronise.HandlerFunc(func(ctx context.Context, m *pending.Mutation) error {
		if !interrupt {
			return nil
		}
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	require.Nil(t, err, "wrong register")

	// a single attempt, so counting the interruption would fail it
	s.enqueue(t, "user", 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	result, err := s.engine.Drain(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "wrong drain error: %v", err)
	assert.Zero(t, result.Failed, "interruption counted as failure")
	assert.Zero(t, result.Retried, "interruption counted as retry")
	assert.Zero(t, s.engine.Failed(), "wrong failed total")

	all, err := s.store.GetPendingOperations(context.Background())
	require.Nil(t, err, "wrong read")
	require.Len(t, all, 1, "mutation removed")
	assert.Equal(t, pending.StatusPending, all[0].Status, "wrong status")
	assert.Zero(t, all[0].Attempts, "attempt used")
	assert.Empty(t, all[0].LastError, "wrong last error")

	// the next drain replays it normally
	interrupt = false
	result, err = s.engine.Drain(context.Background())
	require.Nil(t, err, "wrong drain")
	assert.Equal(t, 1, result.Synced, "wrong synced")
}

func TestDrainWithoutHandler(t *testing.T) {
	s := newSetup(t, time.Hour)
	ctx := context.Background()

	s.enqueue(t, "item", 1, 1)

	result, err := s.engine.Drain(ctx)
	require.Nil(t, err, "wrong drain")
	assert.Equal(t, 1, result.Failed, "missing handler not a failure")

	failed, _ := s.store.GetFailedOperations(ctx)
	require.Len(t, failed, 1, "wrong failed list")
	assert.Contains(t, failed[0].LastError, fault.ErrNoHandler.Error(), "wrong reason")
}

func TestDrainEntity(t *testing.T) {
	s := newSetup(t, time.Hour)
	ctx := context.Background()

	count := 0
	handler := synchronise.HandlerFunc(func(ctx context.Context, m *pending.Mutation) error {
		count += 1
		return nil
	})
	require.Nil(t, s.engine.Register("user", handler), "wrong register")
	require.Nil(t, s.engine.Register("item", handler), "wrong register")
	assert.Equal(t, fault.ErrHandlerAlreadyExists, s.engine.Register("item", handler), "duplicate register")

	s.enqueue(t, "user", 2, 3)
	s.enqueue(t, "item", 3, 3)

	result, err := s.engine.DrainEntity(ctx, "item")
	require.Nil(t, err, "wrong drain")
	assert.Equal(t, "item", result.EntityType, "wrong entity type")
	assert.Equal(t, 3, result.Synced, "wrong synced")

	n, _ := s.store.GetPendingCount(ctx)
	assert.Equal(t, 2, n, "other entity drained")
}

func TestOneDrainAtATime(t *testing.T) {
	s := newSetup(t, time.Hour)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	err := s.engine.Register("user", synchronise.HandlerFunc(func(ctx context.Context, m *pending.Mutation) error {
		close(entered)
		<-release
		return nil
	}))
	require.Nil(t, err, "wrong register")
	s.enqueue(t, "user", 1, 3)

	done := make(chan synchronise.Result)
	go func() {
		r, _ := s.engine.Drain(ctx)
		done <- r
	}()

	<-entered
	assert.Equal(t, synchronise.Syncing, s.engine.State(), "wrong state")
	second, err := s.engine.Drain(ctx)
	assert.Nil(t, err, "wrong error")
	assert.True(t, second.Skipped, "concurrent drain ran")

	close(release)
	first := <-done
	assert.False(t, first.Skipped, "first drain skipped")
	assert.Equal(t, 1, first.Synced, "wrong synced")
}

func TestDrainQueueFailure(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	queue := mocks.NewMockQueue(ctl)
	bus := messagebus.New("events")
	defer bus.Close()
	engine := synchronise.New(logger.New("synchronise"), queue, network.NewTracker(logger.New("network"), 0), bus, synchronise.Options{})

	events := bus.Subscribe(10)
	defer events.Release()

	broken := errors.New("disk gone")
	queue.EXPECT().GetPendingOperations(gomock.Any()).Return(nil, broken).Times(1)

	_, err := engine.Drain(context.Background())
	assert.Equal(t, broken, err, "wrong error")
	assert.Equal(t, synchronise.Failed, engine.State(), "wrong state")

	assert.Equal(t, synchronise.StartedCommand, (<-events.Chan()).Command, "wrong first event")
	assert.Equal(t, synchronise.FailedCommand, (<-events.Chan()).Command, "wrong second event")
}

func TestDrainSkipsChangedRecords(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	queue := mocks.NewMockQueue(ctl)
	handler := mocks.NewMockHandler(ctl)
	engine := synchronise.New(logger.New("synchronise"), queue, network.NewTracker(logger.New("network"), 0), nil, synchronise.Options{})
	require.Nil(t, engine.Register("user", handler), "wrong register")

	listed := []*pending.Mutation{
		{ID: 1, EntityType: "user", EntityID: "offline_a", Payload: pending.CreatePayload{LocalID: "offline_a"}, MaxAttempts: 3, Status: pending.StatusPending},
		{ID: 2, EntityType: "user", EntityID: "offline_a", Payload: pending.UpdatePayload{}, MaxAttempts: 3, Status: pending.StatusPending},
		{ID: 3, EntityType: "user", EntityID: "9", Payload: pending.DeletePayload{}, MaxAttempts: 3, Status: pending.StatusFailed},
	}
	reassigned := *listed[1]
	reassigned.EntityID = "17"

	gomock.InOrder(
		queue.EXPECT().GetPendingOperations(gomock.Any()).Return(listed, nil),
		queue.EXPECT().GetPendingOperation(gomock.Any(), uint64(1)).Return(listed[0], nil),
		queue.EXPECT().UpdatePendingOperation(gomock.Any(), uint64(1), gomock.Any()).Return(nil),
		handler.EXPECT().Replay(gomock.Any(), gomock.Any()).Return(nil),
		queue.EXPECT().DeletePendingOperation(gomock.Any(), uint64(1)).Return(nil),
		queue.EXPECT().GetPendingOperation(gomock.Any(), uint64(2)).Return(&reassigned, nil),
		queue.EXPECT().UpdatePendingOperation(gomock.Any(), uint64(2), gomock.Any()).Return(nil),
		handler.EXPECT().Replay(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, m *pending.Mutation) error {
			assert.Equal(t, "17", m.EntityID, "stale entity id replayed")
			return nil
		}),
		queue.EXPECT().DeletePendingOperation(gomock.Any(), uint64(2)).Return(nil),
	)

	result, err := engine.Drain(context.Background())
	require.Nil(t, err, "wrong drain")
	assert.Equal(t, 2, result.Synced, "wrong synced")
	assert.Equal(t, 2, result.Processed, "failed record processed")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", synchronise.Idle.String(), "wrong idle")
	assert.Equal(t, "syncing", synchronise.Syncing.String(), "wrong syncing")
	assert.Equal(t, "success", synchronise.Success.String(), "wrong success")
	assert.Equal(t, "failed", synchronise.Failed.String(), "wrong failed")
}
