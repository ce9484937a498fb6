// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/offlinecache/fault"
	"github.com/bitmark-inc/offlinecache/network"
	"github.com/bitmark-inc/offlinecache/pending"
	"github.com/bitmark-inc/offlinecache/repository"
	"github.com/bitmark-inc/offlinecache/synchronise"
	"github.com/bitmark-inc/offlinecache/transport"
	"github.com/bitmark-inc/offlinecache/user"
)

func TestOfflineCreateReconciledOnDrain(t *testing.T) {
	s := newSetup(t, repository.Options{})
	engine := synchronise.New(logger.New("synchronise"), s.layers.Store, s.tracker, nil, synchronise.Options{})
	require.Nil(t, engine.Register("user", s.repo), "register")

	s.offline()
	fields := pending.Fields{"firstName": "Jane", "email": "jane@example.com"}
	created, err := s.repo.Create(s.ctx, fields)
	require.Nil(t, err, "create")
	_, err = s.repo.Update(s.ctx, created.ID, pending.Fields{"lastName": "Roe"})
	require.Nil(t, err, "update")
	s.online()

	server := user.User{ID: "17", FirstName: "Jane", Email: "jane@example.com"}
	gomock.InOrder(
		s.remote.EXPECT().Post(gomock.Any(), "/users", fields).Return(entityReply(t, server), nil),
		s.remote.EXPECT().Put(gomock.Any(), "/users/17", pending.Fields{"lastName": "Roe"}).DoAndReturn(
			func(ctx context.Context, path string, body interface{}) (*transport.Response, error) {
				server.LastName = "Roe"
				return entityReply(t, server), nil
			}),
	)

	result, err := engine.Drain(s.ctx)
	require.Nil(t, err, "drain")
	assert.Equal(t, 2, result.Synced, "wrong synced")

	n, err := s.layers.Store.GetPendingCount(s.ctx)
	require.Nil(t, err, "count")
	assert.Zero(t, n, "queue not empty")

	offlineKey := "entity:user:" + created.ID
	assert.False(t, s.layers.Volatile.Has(offlineKey), "offline entry in volatile")
	assert.False(t, s.layers.Bounded.Has(offlineKey), "offline entry in bounded")
	assert.False(t, s.storeHas(t, offlineKey), "offline entry in store")

	u, err := s.repo.GetByID(s.ctx, "17")
	require.Nil(t, err, "read")
	require.NotNil(t, u, "server entity not cached")
	assert.Equal(t, "Roe", u.LastName, "update not replayed")

	commands := []string{}
	var reconciled repository.Event
	for i := 0; i < 4; i += 1 {
		event := s.event(t)
		commands = append(commands, event.Command)
		if repository.ReconciledCommand == event.Command {
			reconciled = event.Item.(repository.Event)
		}
	}
	assert.Equal(t, []string{"created", "updated", "reconciled", "updated"}, commands, "wrong events")
	assert.Equal(t, created.ID, reconciled.PreviousID, "wrong previous id")
	assert.Equal(t, "17", reconciled.ID, "wrong id")
}

func TestReplayFailureKeepsOfflineEntity(t *testing.T) {
	s := newSetup(t, repository.Options{MaxAttempts: 2})
	engine := synchronise.New(logger.New("synchronise"), s.layers.Store, s.tracker, nil, synchronise.Options{})
	require.Nil(t, engine.Register("user", s.repo), "register")

	s.offline()
	created, err := s.repo.Create(s.ctx, pending.Fields{"firstName": "Ivy"})
	require.Nil(t, err, "create")
	s.online()

	s.remote.EXPECT().Post(gomock.Any(), "/users", gomock.Any()).Return(nil, fault.NewRemoteError(fault.Server, 503, "busy", nil)).Times(2)

	for i := 0; i < 2; i += 1 {
		_, err := engine.Drain(s.ctx)
		require.Nil(t, err, "drain")
	}

	failed, err := s.layers.Store.GetFailedOperations(s.ctx)
	require.Nil(t, err, "failed")
	require.Len(t, failed, 1, "not failed")
	assert.Equal(t, created.ID, failed[0].EntityID, "wrong entity")

	u, err := s.repo.GetByID(s.ctx, created.ID)
	require.Nil(t, err, "read")
	assert.NotNil(t, u, "offline entity lost")
}

func TestReplayDeleteAlreadyGone(t *testing.T) {
	s := newSetup(t, repository.Options{})

	s.remote.EXPECT().Delete(gomock.Any(), "/users/12").Return(nil, fault.NewRemoteError(fault.NotFound, 404, "gone", nil))

	m := pending.New("user", "12", pending.DeletePayload{}, 3, testNow)
	assert.Nil(t, s.repo.Replay(s.ctx, m), "not found delete is an error")
	assert.Equal(t, repository.DeletedCommand, s.event(t).Command, "wrong event")
}

func TestReplayErrors(t *testing.T) {
	s := newSetup(t, repository.Options{})

	s.remote.EXPECT().Delete(gomock.Any(), "/users/13").Return(nil, fault.NewRemoteError(fault.Server, 500, "boom", nil))
	err := s.repo.Replay(s.ctx, pending.New("user", "13", pending.DeletePayload{}, 3, testNow))
	assert.Equal(t, fault.Server, fault.KindOf(err), "wrong kind")

	// waits for the create to be reconciled
	err = s.repo.Replay(s.ctx, pending.New("user", "offline_x", pending.UpdatePayload{}, 3, testNow))
	assert.ErrorIs(t, err, fault.ErrUnreconciledEntity, "wrong unreconciled update")
	err = s.repo.Replay(s.ctx, pending.New("user", "offline_x", pending.DeletePayload{}, 3, testNow))
	assert.ErrorIs(t, err, fault.ErrUnreconciledEntity, "wrong unreconciled delete")

	err = s.repo.Replay(s.ctx, &pending.Mutation{ID: 1, EntityType: "user", EntityID: "1"})
	assert.ErrorIs(t, err, fault.ErrUnknownKind, "wrong unknown kind")

	err = s.repo.Replay(s.ctx, nil)
	assert.Equal(t, fault.ErrMissingPayload, err, "wrong nil mutation")
}

type recordingDrainer struct {
	sync.Mutex
	types []string
}

func (d *recordingDrainer) DrainEntity(ctx context.Context, entityType string) (synchronise.Result, error) {
	d.Lock()
	defer d.Unlock()
	d.types = append(d.types, entityType)
	return synchronise.Result{EntityType: entityType}, nil
}

func (d *recordingDrainer) calls() []string {
	d.Lock()
	defer d.Unlock()
	return append([]string{}, d.types...)
}

func TestReconnectDrainsOwnEntityType(t *testing.T) {
	drainer := &recordingDrainer{}
	s := newSetup(t, repository.Options{Sync: drainer})

	s.offline()
	s.repo.Start()
	s.repo.Start()
	time.Sleep(20 * time.Millisecond)

	s.tracker.Report(true, &network.Quality{EffectiveType: "2g"})
	assert.Eventually(t, func() bool {
		return 1 == len(drainer.calls())
	}, time.Second, 5*time.Millisecond, "no drain on reconnect")
	assert.Equal(t, []string{"user"}, drainer.calls(), "wrong entity type")

	// online to online is not a reconnect
	s.tracker.Report(true, nil)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, drainer.calls(), 1, "drained without reconnect")

	s.repo.Stop()
	s.repo.Stop()
}
