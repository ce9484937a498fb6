// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bitmark-inc/offlinecache/fault"
	"github.com/bitmark-inc/offlinecache/pending"
	"github.com/bitmark-inc/offlinecache/transport"
)

// Create - add an entity
//
// offline, or with the remote unreachable, the entity is given an
// offline id and the create is queued
func (r *Repository[E]) Create(ctx context.Context, fields pending.Fields) (*E, error) {
	if nil == fields {
		return nil, fault.ErrMissingPayload
	}

	if r.online() {
		response, err := r.remote.Post(ctx, r.resource.Path(), fields)
		if nil == err {
			entity, id, err := r.decode(response)
			if nil != err {
				return nil, err
			}
			r.refresh(ctx, id, entity)
			r.send(CreatedCommand, Event{ID: id, Entity: entity})
			return entity, nil
		}
		if !fault.IsNetwork(err) {
			return nil, err
		}
		r.log.Warnf("create: %s  unreachable, queueing: %s", r.entityType, err)
	}

	id := OfflinePrefix + uuid.New().String()
	entity, err := r.synthesise(nil, fields, id)
	if nil != err {
		return nil, err
	}

	payload := pending.CreatePayload{LocalID: id, Fields: fields}
	err = r.applyOffline(ctx, id, entity, payload)
	if nil != err {
		return nil, err
	}
	r.send(CreatedCommand, Event{ID: id, Entity: entity, Offline: true})
	return entity, nil
}

// Update - change fields of an existing entity
func (r *Repository[E]) Update(ctx context.Context, id string, fields pending.Fields) (*E, error) {
	if nil == fields {
		return nil, fault.ErrMissingPayload
	}
	existing, err := r.resolve(ctx, id)
	if nil != err {
		return nil, err
	}

	if !IsOffline(id) && r.online() {
		response, err := r.remote.Put(ctx, r.entityPath(id), fields)
		if nil == err {
			entity, _, err := r.decode(response)
			if nil != err {
				return nil, err
			}
			r.refresh(ctx, id, entity)
			r.send(UpdatedCommand, Event{ID: id, Entity: entity})
			return entity, nil
		}
		if !fault.IsNetwork(err) {
			return nil, err
		}
		r.log.Warnf("update: %s: %s  unreachable, queueing: %s", r.entityType, id, err)
	}

	entity, err := r.synthesise(existing, fields, id)
	if nil != err {
		return nil, err
	}
	err = r.applyOffline(ctx, id, entity, pending.UpdatePayload{Fields: fields})
	if nil != err {
		return nil, err
	}
	r.send(UpdatedCommand, Event{ID: id, Entity: entity, Offline: true})
	return entity, nil
}

// Delete - remove an existing entity
func (r *Repository[E]) Delete(ctx context.Context, id string) error {
	_, err := r.resolve(ctx, id)
	if nil != err {
		return err
	}

	if !IsOffline(id) && r.online() {
		_, err := r.remote.Delete(ctx, r.entityPath(id))
		if nil == err {
			r.refresh(ctx, id, nil)
			r.send(DeletedCommand, Event{ID: id})
			return nil
		}
		if !fault.IsNetwork(err) {
			return err
		}
		r.log.Warnf("delete: %s: %s  unreachable, queueing: %s", r.entityType, id, err)
	}

	err = r.applyOffline(ctx, id, nil, pending.DeletePayload{})
	if nil != err {
		return err
	}
	r.send(DeletedCommand, Event{ID: id, Offline: true})
	return nil
}

// entity must be readable before it can be written
func (r *Repository[E]) resolve(ctx context.Context, id string) (*E, error) {
	entity, err := r.GetByID(ctx, id)
	if fault.NotFound == fault.KindOf(err) {
		return nil, fmt.Errorf("%w: %s: %s", fault.ErrEntityNotFound, r.entityType, id)
	}
	if nil != err {
		return nil, err
	}
	if nil == entity {
		return nil, fmt.Errorf("%w: %s: %s", fault.ErrEntityNotFound, r.entityType, id)
	}
	return entity, nil
}

// update the layers and queue the mutation, nil entity means removal
//
// unlike the online path, a local failure here loses the write so it
// is returned
func (r *Repository[E]) applyOffline(ctx context.Context, id string, entity *E, payload pending.Payload) error {
	var err error
	if nil != entity {
		err = r.populate(ctx, id, entity)
	} else {
		err = r.evict(ctx, id)
	}
	if nil != err {
		return err
	}
	err = r.invalidateLists(ctx)
	if nil != err {
		return err
	}

	m := pending.New(r.entityType, id, payload, r.options.MaxAttempts, r.options.Clock())
	queued, err := r.layers.Store.AddPendingOperation(ctx, m)
	if nil != err {
		return err
	}
	r.log.Infof("queued: %d  %s %s: %s", queued, payload.Kind(), r.entityType, id)
	return nil
}

// build an entity by overlaying fields on base (nil for a new entity)
func (r *Repository[E]) synthesise(base *E, fields pending.Fields, id string) (*E, error) {
	record := map[string]interface{}{}
	if nil != base {
		data, err := json.Marshal(base)
		if nil != err {
			return nil, err
		}
		err = json.Unmarshal(data, &record)
		if nil != err {
			return nil, err
		}
	}

	for k, v := range fields {
		record[k] = v
	}

	now := r.options.Clock().UTC().Format(time.RFC3339Nano)
	record[idField] = id
	if nil == base {
		record[createdAtField] = now
	}
	record[updatedAtField] = now

	data, err := json.Marshal(record)
	if nil != err {
		return nil, err
	}
	entity := new(E)
	err = json.Unmarshal(data, entity)
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrInvalidFields, err)
	}
	return entity, nil
}

// entity and its id from a remote reply
func (r *Repository[E]) decode(response *transport.Response) (*E, string, error) {
	entity := new(E)
	err := response.Decode(entity)
	if nil != err {
		return nil, "", err
	}
	id := r.resource.Identify(*entity)
	if "" == id {
		return nil, "", fault.ErrMissingEntityID
	}
	return entity, id, nil
}
