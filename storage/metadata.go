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

// SyncMetadata - bookkeeping for one remote resource
type SyncMetadata struct {
	Key               string    `json:"key"`
	LastSyncTimestamp time.Time `json:"lastSyncTimestamp"`
	Version           uint64    `json:"version"`
}

// GetSyncMetadata - nil if the key has never been synchronised
func (s *Store) GetSyncMetadata(ctx context.Context, key string) (*SyncMetadata, error) {
	if "" == key {
		return nil, fault.ErrEmptyKey
	}
	db, err := s.ready(ctx)
	if nil != err {
		return nil, err
	}
	return s.getMetadata(db, key)
}

// UpdateSyncMetadata - record a successful synchronisation now
//
// a nil version increments the previous one
func (s *Store) UpdateSyncMetadata(ctx context.Context, key string, version *uint64) error {
	if "" == key {
		return fault.ErrEmptyKey
	}
	db, err := s.ready(ctx)
	if nil != err {
		return err
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	m, err := s.getMetadata(db, key)
	if nil != err {
		return err
	}
	if nil == m {
		m = &SyncMetadata{Key: key}
	}
	m.LastSyncTimestamp = s.clock()
	if nil != version {
		m.Version = *version
	} else {
		m.Version += 1
	}

	data, err := json.Marshal(m)
	if nil != err {
		return err
	}
	return db.Put(s.t.Metadata.key([]byte(key)), data, nil)
}

func (s *Store) getMetadata(db *leveldb.DB, key string) (*SyncMetadata, error) {
	data, err := db.Get(s.t.Metadata.key([]byte(key)), nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	} else if nil != err {
		return nil, fmt.Errorf("read metadata: %q: %w", key, err)
	}
	m := &SyncMetadata{}
	err = json.Unmarshal(data, m)
	if nil != err {
		return nil, fmt.Errorf("decode metadata: %q: %w", key, err)
	}
	return m, nil
}
