// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package repository

import (
	"context"
	"fmt"

	"github.com/bitmark-inc/offlinecache/fault"
	"github.com/bitmark-inc/offlinecache/pending"
)

// Replay - send one queued mutation to the remote
//
// satisfies synchronise.Handler; a returned error counts as a failed attempt
func (r *Repository[E]) Replay(ctx context.Context, m *pending.Mutation) error {
	if nil == m {
		return fault.ErrMissingPayload
	}

	switch payload := m.Payload.(type) {
	case pending.CreatePayload:
		return r.replayCreate(ctx, m, payload)
	case pending.UpdatePayload:
		return r.replayUpdate(ctx, m, payload)
	case pending.DeletePayload:
		return r.replayDelete(ctx, m)
	default:
		return fmt.Errorf("%w: %d", fault.ErrUnknownKind, m.ID)
	}
}

// create the entity remotely then move everything from the offline id
// to the server id
func (r *Repository[E]) replayCreate(ctx context.Context, m *pending.Mutation, payload pending.CreatePayload) error {
	localID := payload.LocalID
	if "" == localID {
		localID = m.EntityID
	}

	response, err := r.remote.Post(ctx, r.resource.Path(), payload.Fields)
	if nil != err {
		return err
	}
	entity, id, err := r.decode(response)
	if nil != err {
		return err
	}

	if err := r.evict(ctx, localID); nil != err {
		r.log.Errorf("reconcile: %s: %s  evict error: %s", r.entityType, localID, err)
	}
	r.refresh(ctx, id, entity)

	// the remote has the entity now, so a failure here must not cause
	// the create to be sent again
	n, err := r.layers.Store.ReassignEntity(ctx, r.entityType, localID, id)
	if nil != err {
		r.log.Errorf("reconcile: %s: %s -> %s  reassign error: %s", r.entityType, localID, id, err)
	}

	r.log.Infof("reconciled: %s: %s -> %s  queued: %d", r.entityType, localID, id, n)
	r.send(ReconciledCommand, Event{ID: id, PreviousID: localID, Entity: entity})
	return nil
}

func (r *Repository[E]) replayUpdate(ctx context.Context, m *pending.Mutation, payload pending.UpdatePayload) error {
	if IsOffline(m.EntityID) {
		return fmt.Errorf("%w: %s: %s", fault.ErrUnreconciledEntity, r.entityType, m.EntityID)
	}

	response, err := r.remote.Put(ctx, r.entityPath(m.EntityID), payload.Fields)
	if nil != err {
		return err
	}
	entity, _, err := r.decode(response)
	if nil != err {
		return err
	}

	r.refresh(ctx, m.EntityID, entity)
	r.send(UpdatedCommand, Event{ID: m.EntityID, Entity: entity})
	return nil
}

// already gone counts as done
func (r *Repository[E]) replayDelete(ctx context.Context, m *pending.Mutation) error {
	if IsOffline(m.EntityID) {
		return fmt.Errorf("%w: %s: %s", fault.ErrUnreconciledEntity, r.entityType, m.EntityID)
	}

	_, err := r.remote.Delete(ctx, r.entityPath(m.EntityID))
	if fault.NotFound == fault.KindOf(err) {
		r.log.Debugf("replay delete: %s: %s  already absent", r.entityType, m.EntityID)
	} else if nil != err {
		return err
	}

	r.refresh(ctx, m.EntityID, nil)
	r.send(DeletedCommand, Event{ID: m.EntityID})
	return nil
}
