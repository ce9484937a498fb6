// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package repository_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/offlinecache/fault"
	"github.com/bitmark-inc/offlinecache/pending"
	"github.com/bitmark-inc/offlinecache/repository"
	"github.com/bitmark-inc/offlinecache/transport"
	"github.com/bitmark-inc/offlinecache/user"
)

func TestOfflineCreateThenRead(t *testing.T) {
	s := newSetup(t, repository.Options{})
	s.offline()

	fields := pending.Fields{"firstName": "Jane", "lastName": "Doe", "email": "jane@example.com"}
	created, err := s.repo.Create(s.ctx, fields)
	require.Nil(t, err, "wrong error")
	require.NotNil(t, created, "nothing created")

	assert.True(t, strings.HasPrefix(created.ID, "offline_"), "wrong id: %s", created.ID)
	assert.True(t, len(created.ID) > len("offline_"), "empty opaque part")
	assert.True(t, repository.IsOffline(created.ID), "not recognised as offline")
	assert.Equal(t, "Jane", created.FirstName, "wrong first name")
	assert.True(t, testNow.Equal(created.CreatedAt), "wrong created at: %s", created.CreatedAt)
	assert.True(t, testNow.Equal(created.UpdatedAt), "wrong updated at: %s", created.UpdatedAt)

	// no transport expectations: any remote call fails the test
	read, err := s.repo.GetByID(s.ctx, created.ID)
	require.Nil(t, err, "wrong error")
	assert.Equal(t, created, read, "wrong read back")

	queued, err := s.layers.Store.GetPendingOperationsByEntity(s.ctx, "user")
	require.Nil(t, err, "queue")
	require.Len(t, queued, 1, "wrong queue length")
	assert.Equal(t, pending.KindCreate, queued[0].Kind(), "wrong kind")
	assert.Equal(t, created.ID, queued[0].EntityID, "wrong entity id")
	assert.Equal(t, pending.CreatePayload{LocalID: created.ID, Fields: fields}, queued[0].Payload, "wrong payload")

	event := s.event(t)
	assert.Equal(t, repository.CreatedCommand, event.Command, "wrong command")
	item := event.Item.(repository.Event)
	assert.True(t, item.Offline, "not marked offline")
	assert.Equal(t, created.ID, item.ID, "wrong event id")
	assert.Equal(t, "user", item.EntityType, "wrong entity type")
}

func TestOnlineCreate(t *testing.T) {
	s := newSetup(t, repository.Options{})

	// a cached page must be dropped by the create
	s.layers.Bounded.Set("list:user:1:10:", repository.Page[user.User]{})

	fields := pending.Fields{"firstName": "Ann"}
	s.remote.EXPECT().Post(gomock.Any(), "/users", fields).Return(entityReply(t, user.User{ID: "31", FirstName: "Ann"}), nil).Times(1)

	created, err := s.repo.Create(s.ctx, fields)
	require.Nil(t, err, "wrong error")
	assert.Equal(t, "31", created.ID, "wrong id")

	assert.True(t, s.layers.Volatile.Has("entity:user:31"), "volatile not populated")
	assert.True(t, s.layers.Bounded.Has("entity:user:31"), "bounded not populated")
	assert.True(t, s.storeHas(t, "entity:user:31"), "store not populated")
	assert.False(t, s.layers.Bounded.Has("list:user:1:10:"), "list not invalidated")

	n, err := s.layers.Store.GetPendingCount(s.ctx)
	require.Nil(t, err, "count")
	assert.Zero(t, n, "online create queued")

	event := s.event(t)
	assert.Equal(t, repository.CreatedCommand, event.Command, "wrong command")
	assert.False(t, event.Item.(repository.Event).Offline, "marked offline")
}

func TestCreateUnreachableIsQueued(t *testing.T) {
	s := newSetup(t, repository.Options{})

	s.remote.EXPECT().Post(gomock.Any(), "/users", gomock.Any()).Return(nil, fault.NewRemoteError(fault.Network, 0, "timeout", nil))

	created, err := s.repo.Create(s.ctx, pending.Fields{"firstName": "Tim"})
	require.Nil(t, err, "wrong error")
	assert.True(t, repository.IsOffline(created.ID), "not an offline id")

	n, err := s.layers.Store.GetPendingCount(s.ctx)
	require.Nil(t, err, "count")
	assert.Equal(t, 1, n, "not queued")
}

func TestCreateRequestErrorSurfaces(t *testing.T) {
	s := newSetup(t, repository.Options{})

	s.remote.EXPECT().Post(gomock.Any(), "/users", gomock.Any()).Return(nil, fault.NewRemoteError(fault.Conflict, 409, "email taken", nil))

	_, err := s.repo.Create(s.ctx, pending.Fields{"email": "dup@example.com"})
	assert.Equal(t, fault.Conflict, fault.KindOf(err), "wrong kind")

	n, err := s.layers.Store.GetPendingCount(s.ctx)
	require.Nil(t, err, "count")
	assert.Zero(t, n, "rejected create queued")

	_, err = s.repo.Create(s.ctx, nil)
	assert.Equal(t, fault.ErrMissingPayload, err, "nil fields accepted")
}

func TestUpdateRequiresEntity(t *testing.T) {
	s := newSetup(t, repository.Options{})
	s.offline()

	_, err := s.repo.Update(s.ctx, "404", pending.Fields{"firstName": "X"})
	assert.True(t, fault.IsErrNotFound(err), "wrong error: %v", err)

	err = s.repo.Delete(s.ctx, "404")
	assert.True(t, fault.IsErrNotFound(err), "wrong error: %v", err)

	s.online()
	s.remote.EXPECT().Get(gomock.Any(), "/users/405").Return(nil, fault.NewRemoteError(fault.NotFound, 404, "gone", nil))
	err = s.repo.Delete(s.ctx, "405")
	assert.True(t, fault.IsErrNotFound(err), "wrong error: %v", err)

	n, _ := s.layers.Store.GetPendingCount(s.ctx)
	assert.Zero(t, n, "write queued for a missing entity")
}

func TestOfflineUpdateMergesFields(t *testing.T) {
	earlier := testNow.Add(-24 * time.Hour)
	s := newSetup(t, repository.Options{})
	s.seed(t, user.User{ID: "8", FirstName: "Jo", LastName: "March", Email: "jo@x.io", CreatedAt: earlier, UpdatedAt: earlier})
	s.offline()

	updated, err := s.repo.Update(s.ctx, "8", pending.Fields{"firstName": "Josephine", "id": "ignored"})
	require.Nil(t, err, "wrong error")
	assert.Equal(t, "8", updated.ID, "id changed")
	assert.Equal(t, "Josephine", updated.FirstName, "field not applied")
	assert.Equal(t, "March", updated.LastName, "field lost")
	assert.True(t, earlier.Equal(updated.CreatedAt), "created at changed")
	assert.True(t, testNow.Equal(updated.UpdatedAt), "updated at not refreshed")

	read, err := s.repo.GetByID(s.ctx, "8")
	require.Nil(t, err, "wrong error")
	assert.Equal(t, "Josephine", read.FirstName, "layers not updated")

	queued, _ := s.layers.Store.GetPendingOperations(s.ctx)
	require.Len(t, queued, 1, "wrong queue length")
	assert.Equal(t, pending.KindUpdate, queued[0].Kind(), "wrong kind")
	assert.Equal(t, "8", queued[0].EntityID, "wrong entity")

	event := s.event(t)
	assert.Equal(t, repository.UpdatedCommand, event.Command, "wrong command")
}

func TestOnlineUpdateOfOfflineEntityIsQueued(t *testing.T) {
	s := newSetup(t, repository.Options{})
	s.offline()
	created, err := s.repo.Create(s.ctx, pending.Fields{"firstName": "Kim"})
	require.Nil(t, err, "create")
	s.online()

	// the remote does not know the offline id, so no call is made
	_, err = s.repo.Update(s.ctx, created.ID, pending.Fields{"lastName": "Lee"})
	require.Nil(t, err, "update")

	queued, _ := s.layers.Store.GetPendingOperationsByEntity(s.ctx, "user")
	require.Len(t, queued, 2, "wrong queue length")
	assert.Equal(t, pending.KindUpdate, queued[1].Kind(), "wrong kind")
	assert.Equal(t, created.ID, queued[1].EntityID, "wrong entity")
}

func TestOnlineUpdateAndDelete(t *testing.T) {
	s := newSetup(t, repository.Options{})
	s.seed(t, user.User{ID: "3", FirstName: "Al"})

	fields := pending.Fields{"firstName": "Alan"}
	s.remote.EXPECT().Put(gomock.Any(), "/users/3", fields).Return(entityReply(t, user.User{ID: "3", FirstName: "Alan"}), nil)
	s.remote.EXPECT().Delete(gomock.Any(), "/users/3").Return(&transport.Response{Status: 204}, nil)

	updated, err := s.repo.Update(s.ctx, "3", fields)
	require.Nil(t, err, "update")
	assert.Equal(t, "Alan", updated.FirstName, "wrong update")

	err = s.repo.Delete(s.ctx, "3")
	require.Nil(t, err, "delete")

	assert.False(t, s.layers.Volatile.Has("entity:user:3"), "volatile still holds entity")
	assert.False(t, s.layers.Bounded.Has("entity:user:3"), "bounded still holds entity")
	assert.False(t, s.storeHas(t, "entity:user:3"), "store still holds entity")

	assert.Equal(t, repository.UpdatedCommand, s.event(t).Command, "wrong first event")
	assert.Equal(t, repository.DeletedCommand, s.event(t).Command, "wrong second event")
}

func TestOfflineDelete(t *testing.T) {
	s := newSetup(t, repository.Options{MaxAttempts: 5})
	s.seed(t, user.User{ID: "4"})
	s.offline()

	err := s.repo.Delete(s.ctx, "4")
	require.Nil(t, err, "delete")
	assert.False(t, s.storeHas(t, "entity:user:4"), "store still holds entity")

	u, err := s.repo.GetByID(s.ctx, "4")
	assert.Nil(t, err, "wrong error")
	assert.Nil(t, u, "deleted entity readable")

	queued, _ := s.layers.Store.GetPendingOperations(s.ctx)
	require.Len(t, queued, 1, "wrong queue length")
	assert.Equal(t, pending.KindDelete, queued[0].Kind(), "wrong kind")
	assert.Equal(t, 5, queued[0].MaxAttempts, "wrong max attempts")

	event := s.event(t)
	assert.Equal(t, repository.DeletedCommand, event.Command, "wrong command")
	assert.True(t, event.Item.(repository.Event).Offline, "not marked offline")
}
