// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package repository

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/offlinecache/background"
	"github.com/bitmark-inc/offlinecache/fault"
	"github.com/bitmark-inc/offlinecache/messagebus"
	"github.com/bitmark-inc/offlinecache/network"
	"github.com/bitmark-inc/offlinecache/transport"
)

// Repository - cascade reads and offline capable writes for one entity type
type Repository[E any] struct {
	sync.Mutex
	log        *logger.L
	resource   Resource[E]
	entityType string
	layers     Layers
	remote     transport.Transport
	monitor    network.Monitor
	bus        *messagebus.Bus
	options    Options
	background *background.T
}

// New - create a repository over shared layers
//
// bus may be nil when nobody listens for events
func New[E any](log *logger.L, resource Resource[E], layers Layers, remote transport.Transport, monitor network.Monitor, bus *messagebus.Bus, options Options) (*Repository[E], error) {
	if nil == resource || "" == resource.Type() {
		return nil, fault.ErrMissingEntityType
	}
	if nil == layers.Volatile || nil == layers.Bounded || nil == layers.Store {
		return nil, fault.ErrMissingLayer
	}
	if nil == remote {
		return nil, fault.ErrMissingTransport
	}
	if options.EntityTTL <= 0 {
		options.EntityTTL = DefaultEntityTTL
	}
	if options.ListTTL <= 0 {
		options.ListTTL = DefaultListTTL
	}
	if nil == options.Clock {
		options.Clock = time.Now
	}

	return &Repository[E]{
		log:        log,
		resource:   resource,
		entityType: resource.Type(),
		layers:     layers,
		remote:     remote,
		monitor:    monitor,
		bus:        bus,
		options:    options,
	}, nil
}

// EntityType - the type served
func (r *Repository[E]) EntityType() string {
	return r.entityType
}

func (r *Repository[E]) online() bool {
	return nil == r.monitor || r.monitor.IsOnline()
}

func (r *Repository[E]) entityPath(id string) string {
	return r.resource.Path() + "/" + url.PathEscape(id)
}

// copy an entity into all three layers
func (r *Repository[E]) populate(ctx context.Context, id string, entity *E) error {
	key := entityKey(r.entityType, id)
	r.layers.Volatile.Set(key, *entity)
	r.layers.Bounded.Set(key, *entity)
	return r.layers.Store.SetCache(ctx, key, entity, r.options.EntityTTL)
}

// remove an entity from all three layers
func (r *Repository[E]) evict(ctx context.Context, id string) error {
	key := entityKey(r.entityType, id)
	r.layers.Volatile.Delete(key)
	r.layers.Bounded.Delete(key)
	return r.layers.Store.DeleteCache(ctx, key)
}

// drop every cached page, membership or order may have changed
func (r *Repository[E]) invalidateLists(ctx context.Context) error {
	prefix := listPrefix(r.entityType)
	r.layers.Volatile.ClearByPrefix(prefix)
	r.layers.Bounded.ClearByPrefix(prefix)
	_, err := r.layers.Store.ClearCacheByPrefix(ctx, prefix)
	return err
}

// after the remote accepted a write local failures are only logged
func (r *Repository[E]) refresh(ctx context.Context, id string, entity *E) {
	if nil != entity {
		if err := r.populate(ctx, id, entity); nil != err {
			r.log.Errorf("populate: %s: %s  error: %s", r.entityType, id, err)
		}
	} else if err := r.evict(ctx, id); nil != err {
		r.log.Errorf("evict: %s: %s  error: %s", r.entityType, id, err)
	}
	if err := r.invalidateLists(ctx); nil != err {
		r.log.Errorf("invalidate lists: %s  error: %s", r.entityType, err)
	}
}

func (r *Repository[E]) send(command string, event Event) {
	if nil != r.bus {
		event.EntityType = r.entityType
		r.bus.Send(command, event)
	}
}
