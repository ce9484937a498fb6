// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package repository

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/bitmark-inc/offlinecache/fault"
)

// GetByID - fetch one entity through the cascade
//
// returns nil without error when the entity cannot be reached: the
// client is offline, or the remote is unreachable, and no layer holds it
func (r *Repository[E]) GetByID(ctx context.Context, id string) (*E, error) {
	if "" == id {
		return nil, fault.ErrMissingEntityID
	}

	key := entityKey(r.entityType, id)

	if v, ok := r.layers.Volatile.Get(key); ok {
		if entity, ok := v.(E); ok {
			r.log.Debugf("get: %s  volatile hit", key)
			return &entity, nil
		}
	}

	if v, ok := r.layers.Bounded.Get(key); ok {
		if entity, ok := v.(E); ok {
			r.log.Debugf("get: %s  bounded hit", key)
			r.layers.Volatile.Set(key, entity)
			return &entity, nil
		}
	}

	entity := new(E)
	found, err := r.layers.Store.GetCache(ctx, key, entity)
	if nil != err {
		return nil, err
	}
	if found {
		r.log.Debugf("get: %s  store hit", key)
		r.layers.Bounded.Set(key, *entity)
		r.layers.Volatile.Set(key, *entity)
		return entity, nil
	}

	if IsOffline(id) || !r.online() {
		r.log.Debugf("get: %s  not available offline", key)
		return nil, nil
	}

	response, err := r.remote.Get(ctx, r.entityPath(id))
	if fault.IsNetwork(err) {
		r.log.Warnf("get: %s  unreachable: %s", key, err)
		return nil, nil
	}
	if nil != err {
		return nil, err
	}

	entity = new(E)
	err = response.Decode(entity)
	if nil != err {
		return nil, err
	}

	r.log.Debugf("get: %s  remote hit", key)
	err = r.populate(ctx, id, entity)
	if nil != err {
		r.log.Errorf("populate: %s  error: %s", key, err)
	}
	return entity, nil
}

// GetList - fetch one page through bounded -> store -> remote
//
// offline, or with the remote unreachable, the page is rebuilt from the
// entity records held by the store
func (r *Repository[E]) GetList(ctx context.Context, params ListParams) (*Page[E], error) {
	if params.Page < 1 || params.PageSize < 1 {
		return nil, fault.ErrInvalidPage
	}

	key := listKey(r.entityType, params)

	if v, ok := r.layers.Bounded.Get(key); ok {
		if page, ok := v.(Page[E]); ok {
			r.log.Debugf("list: %s  bounded hit", key)
			return &page, nil
		}
	}

	page := new(Page[E])
	found, err := r.layers.Store.GetCache(ctx, key, page)
	if nil != err {
		return nil, err
	}
	if found {
		r.log.Debugf("list: %s  store hit", key)
		r.layers.Bounded.SetWithTTL(key, *page, r.options.ListTTL)
		return page, nil
	}

	if !r.online() {
		return r.localPage(ctx, params)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("pageSize", strconv.Itoa(params.PageSize))
	if "" != params.Search {
		query.Set("search", params.Search)
	}

	response, err := r.remote.Get(ctx, r.resource.Path()+"?"+query.Encode())
	if fault.IsRetryable(err) {
		r.log.Warnf("list: %s  remote failed: %s", key, err)
		return r.localPage(ctx, params)
	}
	if nil != err {
		return nil, err
	}

	page = new(Page[E])
	if nil == response || 0 == len(response.Data) {
		return nil, fault.ErrUnexpectedResponseShape
	}
	err = json.Unmarshal(response.Data, page)
	if nil != err {
		return nil, fault.ErrUnexpectedResponseShape
	}
	if nil == page.Data {
		page.Data = []E{}
	}

	r.log.Debugf("list: %s  remote: %d of %d", key, len(page.Data), page.Total)
	r.remember(ctx, key, page)
	return page, nil
}

// cache a fetched page and its entities
func (r *Repository[E]) remember(ctx context.Context, key string, page *Page[E]) {
	store := r.layers.Store

	for i := range page.Data {
		id := r.resource.Identify(page.Data[i])
		if "" == id {
			continue
		}
		err := store.SetCache(ctx, entityKey(r.entityType, id), &page.Data[i], r.options.EntityTTL)
		if nil != err {
			r.log.Errorf("list: %s  cache entity: %s  error: %s", key, id, err)
		}
	}

	r.layers.Bounded.SetWithTTL(key, *page, r.options.ListTTL)
	err := store.SetCache(ctx, key, page, r.options.ListTTL)
	if nil != err {
		r.log.Errorf("list: %s  cache page error: %s", key, err)
	}

	err = store.UpdateSyncMetadata(ctx, metadataKey(r.entityType), nil)
	if nil != err {
		r.log.Errorf("list: %s  sync metadata error: %s", key, err)
	}
}

// rebuild a page from every entity record in the store
func (r *Repository[E]) localPage(ctx context.Context, params ListParams) (*Page[E], error) {
	term := strings.ToLower(strings.TrimSpace(params.Search))

	matched := []E{}
	err := r.layers.Store.ScanCache(ctx, entityPrefix(r.entityType), func(key string, raw json.RawMessage) error {
		var entity E
		if err := json.Unmarshal(raw, &entity); nil != err {
			r.log.Warnf("list: skip: %s  error: %s", key, err)
			return nil
		}
		if "" == term || r.resource.Matches(entity, term) {
			matched = append(matched, entity)
		}
		return nil
	})
	if nil != err {
		return nil, err
	}

	// division keeps huge pages from overflowing
	total := len(matched)
	start := total
	if params.Page-1 <= total/params.PageSize {
		start = min(total, (params.Page-1)*params.PageSize)
	}
	end := start + min(params.PageSize, total-start)

	totalPages := total / params.PageSize
	if 0 != total%params.PageSize {
		totalPages += 1
	}

	r.log.Debugf("list: %s  local: %d of %d", r.entityType, end-start, total)

	return &Page[E]{
		Data:       matched[start:end],
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
		Local:      true,
	}, nil
}
