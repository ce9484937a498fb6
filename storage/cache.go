// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/offlinecache/fault"
)

// stored form of a cache entry
type cacheRecord struct {
	Value     json.RawMessage `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
	ExpiresAt time.Time       `json:"expiresAt,omitempty"`
}

func (r *cacheRecord) expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// GetCache - decode a live entry into out
//
// an expired entry is deleted and reported as absent
func (s *Store) GetCache(ctx context.Context, key string, out interface{}) (bool, error) {
	if "" == key {
		return false, fault.ErrEmptyKey
	}
	db, err := s.ready(ctx)
	if nil != err {
		return false, err
	}

	r, err := s.getCacheRecord(db, key)
	if nil != err || nil == r {
		return false, err
	}

	if r.expired(s.clock()) {
		s.writer.Lock()
		defer s.writer.Unlock()

		// re-read in case it was refreshed meanwhile
		r, err = s.getCacheRecord(db, key)
		if nil != err || nil == r {
			return false, err
		}
		if r.expired(s.clock()) {
			batch := new(leveldb.Batch)
			s.deleteCacheRecord(batch, key, r)
			err = db.Write(batch, nil)
			if nil != err {
				return false, fmt.Errorf("delete expired cache: %q: %w", key, err)
			}
			return false, nil
		}
	}

	err = json.Unmarshal(r.Value, out)
	if nil != err {
		return false, fmt.Errorf("decode cache: %q: %w", key, err)
	}
	return true, nil
}

// SetCache - store a value that expires after ttl (<= 0 never expires)
func (s *Store) SetCache(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if "" == key {
		return fault.ErrEmptyKey
	}
	data, err := json.Marshal(value)
	if nil != err {
		return fmt.Errorf("encode cache: %q: %w", key, err)
	}

	db, err := s.ready(ctx)
	if nil != err {
		return err
	}

	now := s.clock()
	r := &cacheRecord{
		Value:     data,
		Timestamp: now,
	}
	if ttl > 0 {
		r.ExpiresAt = now.Add(ttl)
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	batch := new(leveldb.Batch)
	old, err := s.getCacheRecord(db, key)
	if nil != err {
		return err
	}
	if nil != old {
		s.deleteCacheRecord(batch, key, old)
	}
	err = s.putCacheRecord(batch, key, r)
	if nil != err {
		return err
	}
	return db.Write(batch, nil)
}

// DeleteCache - remove one entry, absent keys are ignored
func (s *Store) DeleteCache(ctx context.Context, key string) error {
	if "" == key {
		return fault.ErrEmptyKey
	}
	db, err := s.ready(ctx)
	if nil != err {
		return err
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	r, err := s.getCacheRecord(db, key)
	if nil != err || nil == r {
		return err
	}
	batch := new(leveldb.Batch)
	s.deleteCacheRecord(batch, key, r)
	return db.Write(batch, nil)
}

// ClearCacheByPrefix - remove every entry whose key starts with prefix
func (s *Store) ClearCacheByPrefix(ctx context.Context, prefix string) (int, error) {
	db, err := s.ready(ctx)
	if nil != err {
		return 0, err
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	batch := new(leveldb.Batch)
	n := 0
	iter := db.NewIterator(s.t.Cache.withPrefix([]byte(prefix)), nil)
	for iter.Next() {
		key := string(s.t.Cache.unprefix(iter.Key()))
		r := &cacheRecord{}
		err := json.Unmarshal(iter.Value(), r)
		if nil != err {
			iter.Release()
			return 0, fmt.Errorf("decode cache: %q: %w", key, err)
		}
		s.deleteCacheRecord(batch, key, r)
		n += 1
	}
	iter.Release()
	err = iter.Error()
	if nil != err {
		return 0, err
	}

	err = db.Write(batch, nil)
	if nil != err {
		return 0, err
	}
	return n, nil
}

// ClearAllCache - remove every cache entry
func (s *Store) ClearAllCache(ctx context.Context) error {
	db, err := s.ready(ctx)
	if nil != err {
		return err
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	batch := new(leveldb.Batch)
	for _, t := range []*table{s.t.Cache, s.t.Expiry} {
		iter := db.NewIterator(t.all(), nil)
		for iter.Next() {
			batch.Delete(append([]byte(nil), iter.Key()...))
		}
		iter.Release()
		err := iter.Error()
		if nil != err {
			return err
		}
	}
	return db.Write(batch, nil)
}

// CleanupExpiredCache - remove every expired entry, returns the number removed
func (s *Store) CleanupExpiredCache(ctx context.Context) (int, error) {
	db, err := s.ready(ctx)
	if nil != err {
		return 0, err
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	// index is ordered by expiry so stop at the first live entry
	now := s.clock()
	batch := new(leveldb.Batch)
	n := 0
	iter := db.NewIterator(s.t.Expiry.before(timeBytes(now)), nil)
	for iter.Next() {
		indexKey := append([]byte(nil), iter.Key()...)
		batch.Delete(indexKey)

		if len(indexKey) < 9 {
			continue
		}
		key := string(indexKey[9:])
		r, err := s.getCacheRecord(db, key)
		if nil != err {
			iter.Release()
			return 0, err
		}
		if nil != r && r.expired(now) {
			batch.Delete(s.t.Cache.key([]byte(key)))
			n += 1
		}
	}
	iter.Release()
	err = iter.Error()
	if nil != err {
		return 0, err
	}

	err = db.Write(batch, nil)
	if nil != err {
		return 0, err
	}
	if n > 0 {
		s.log.Debugf("expired cache entries: %d", n)
	}
	return n, nil
}

// ScanCache - call fn for each live entry whose key starts with prefix
//
// raw is only valid for the duration of the call
func (s *Store) ScanCache(ctx context.Context, prefix string, fn func(key string, raw json.RawMessage) error) error {
	db, err := s.ready(ctx)
	if nil != err {
		return err
	}

	now := s.clock()
	iter := db.NewIterator(s.t.Cache.withPrefix([]byte(prefix)), nil)
	defer iter.Release()

	for iter.Next() {
		key := string(s.t.Cache.unprefix(iter.Key()))
		r := &cacheRecord{}
		err := json.Unmarshal(iter.Value(), r)
		if nil != err {
			return fmt.Errorf("decode cache: %q: %w", key, err)
		}
		if r.expired(now) {
			continue
		}
		err = fn(key, r.Value)
		if nil != err {
			return err
		}
	}
	return iter.Error()
}

// nil record if not found
func (s *Store) getCacheRecord(db *leveldb.DB, key string) (*cacheRecord, error) {
	data, err := db.Get(s.t.Cache.key([]byte(key)), nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	} else if nil != err {
		return nil, fmt.Errorf("read cache: %q: %w", key, err)
	}

	r := &cacheRecord{}
	err = json.Unmarshal(data, r)
	if nil != err {
		return nil, fmt.Errorf("decode cache: %q: %w", key, err)
	}
	return r, nil
}

func (s *Store) putCacheRecord(batch *leveldb.Batch, key string, r *cacheRecord) error {
	data, err := json.Marshal(r)
	if nil != err {
		return err
	}
	batch.Put(s.t.Cache.key([]byte(key)), data)
	if !r.ExpiresAt.IsZero() {
		batch.Put(s.expiryKey(key, r.ExpiresAt), nil)
	}
	return nil
}

func (s *Store) deleteCacheRecord(batch *leveldb.Batch, key string, r *cacheRecord) {
	batch.Delete(s.t.Cache.key([]byte(key)))
	if !r.ExpiresAt.IsZero() {
		batch.Delete(s.expiryKey(key, r.ExpiresAt))
	}
}

func (s *Store) expiryKey(key string, expiresAt time.Time) []byte {
	return s.t.Expiry.key(timeBytes(expiresAt), []byte(key))
}
