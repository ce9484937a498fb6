// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/offlinecache/fault"
	"github.com/bitmark-inc/offlinecache/pending"
)

// AddPendingOperation - queue a mutation, returns its assigned id
//
// the id is also written back into m
func (s *Store) AddPendingOperation(ctx context.Context, m *pending.Mutation) (uint64, error) {
	if nil == m {
		return 0, fault.ErrMissingPayload
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.clock()
	}
	if "" == m.Status {
		m.Status = pending.StatusPending
	}
	err := m.Validate()
	if nil != err {
		return 0, err
	}

	db, err := s.ready(ctx)
	if nil != err {
		return 0, err
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	id, err := s.nextID(db)
	if nil != err {
		return 0, err
	}
	m.ID = id

	batch := new(leveldb.Batch)
	err = s.putOperation(batch, m)
	if nil != err {
		return 0, err
	}
	batch.Put(nextIDKey, uint64Bytes(id+1))

	err = db.Write(batch, nil)
	if nil != err {
		return 0, fmt.Errorf("add operation: %w", err)
	}
	s.log.Debugf("queued: %d  %s %s: %s", id, m.Kind(), m.EntityType, m.EntityID)
	return id, nil
}

// GetPendingOperations - every queued mutation, oldest first, any status
func (s *Store) GetPendingOperations(ctx context.Context) ([]*pending.Mutation, error) {
	db, err := s.ready(ctx)
	if nil != err {
		return nil, err
	}
	return s.collect(db, s.t.Timestamp.all(), nil)
}

// GetPendingOperationsByEntity - pending mutations of one entity type, oldest first
func (s *Store) GetPendingOperationsByEntity(ctx context.Context, entityType string) ([]*pending.Mutation, error) {
	db, err := s.ready(ctx)
	if nil != err {
		return nil, err
	}
	result, err := s.collect(db, s.t.Entity.withPrefix([]byte(entityType), separator), func(m *pending.Mutation) bool {
		return pending.StatusPending == m.Status
	})
	if nil != err {
		return nil, err
	}
	sortByCreation(result)
	return result, nil
}

// GetFailedOperations - mutations that used up their attempts, oldest first
func (s *Store) GetFailedOperations(ctx context.Context) ([]*pending.Mutation, error) {
	db, err := s.ready(ctx)
	if nil != err {
		return nil, err
	}
	result, err := s.collect(db, s.t.Status.withPrefix([]byte(pending.StatusFailed), separator), nil)
	if nil != err {
		return nil, err
	}
	sortByCreation(result)
	return result, nil
}

// GetPendingOperation - a single mutation, nil if absent
func (s *Store) GetPendingOperation(ctx context.Context, id uint64) (*pending.Mutation, error) {
	db, err := s.ready(ctx)
	if nil != err {
		return nil, err
	}
	return s.getOperation(db, id)
}

// UpdatePendingOperation - apply a partial change to a queued mutation
func (s *Store) UpdatePendingOperation(ctx context.Context, id uint64, change pending.Change) error {
	db, err := s.ready(ctx)
	if nil != err {
		return err
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	m, err := s.getOperation(db, id)
	if nil != err {
		return err
	}
	if nil == m {
		return fault.ErrOperationNotFound
	}

	batch := new(leveldb.Batch)
	s.deleteIndexes(batch, m)

	err = m.Apply(change)
	if nil != err {
		return err
	}
	err = s.putOperation(batch, m)
	if nil != err {
		return err
	}
	return db.Write(batch, nil)
}

// DeletePendingOperation - remove a mutation, absent ids are ignored
func (s *Store) DeletePendingOperation(ctx context.Context, id uint64) error {
	db, err := s.ready(ctx)
	if nil != err {
		return err
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	m, err := s.getOperation(db, id)
	if nil != err || nil == m {
		return err
	}

	batch := new(leveldb.Batch)
	s.deleteOperation(batch, m)
	return db.Write(batch, nil)
}

// ReassignEntity - point every queued mutation for oldID at newID
//
// used once an entity created offline has been given its server id
func (s *Store) ReassignEntity(ctx context.Context, entityType string, oldID string, newID string) (int, error) {
	if "" == newID {
		return 0, fault.ErrMissingEntityID
	}
	db, err := s.ready(ctx)
	if nil != err {
		return 0, err
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	ms, err := s.collect(db, s.t.Entity.withPrefix([]byte(entityType), separator, []byte(oldID), separator), nil)
	if nil != err {
		return 0, err
	}

	batch := new(leveldb.Batch)
	for _, m := range ms {
		s.deleteIndexes(batch, m)
		err := m.Apply(pending.Retarget(newID))
		if nil != err {
			return 0, err
		}
		err = s.putOperation(batch, m)
		if nil != err {
			return 0, err
		}
	}

	err = db.Write(batch, nil)
	if nil != err {
		return 0, err
	}
	return len(ms), nil
}

// CleanupOldOperations - drop mutations created more than maxAge ago
//
// records being processed are left alone
func (s *Store) CleanupOldOperations(ctx context.Context, maxAge time.Duration) (int, error) {
	db, err := s.ready(ctx)
	if nil != err {
		return 0, err
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	cutoff := s.clock().Add(-maxAge)
	ms, err := s.collect(db, s.t.Timestamp.before(timeBytes(cutoff)), func(m *pending.Mutation) bool {
		return pending.StatusProcessing != m.Status
	})
	if nil != err {
		return 0, err
	}

	batch := new(leveldb.Batch)
	for _, m := range ms {
		s.deleteOperation(batch, m)
	}
	err = db.Write(batch, nil)
	if nil != err {
		return 0, err
	}
	if len(ms) > 0 {
		s.log.Infof("removed old operations: %d", len(ms))
	}
	return len(ms), nil
}

// ResetProcessing - return mutations stuck in processing to pending
//
// a crash during replay leaves records in processing
func (s *Store) ResetProcessing(ctx context.Context) (int, error) {
	db, err := s.ready(ctx)
	if nil != err {
		return 0, err
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	ms, err := s.collect(db, s.t.Status.withPrefix([]byte(pending.StatusProcessing), separator), nil)
	if nil != err {
		return 0, err
	}

	batch := new(leveldb.Batch)
	for _, m := range ms {
		s.deleteIndexes(batch, m)
		err := m.Apply(pending.Reset())
		if nil != err {
			return 0, err
		}
		err = s.putOperation(batch, m)
		if nil != err {
			return 0, err
		}
	}
	err = db.Write(batch, nil)
	if nil != err {
		return 0, err
	}
	return len(ms), nil
}

// GetPendingCount - number of mutations waiting for replay
func (s *Store) GetPendingCount(ctx context.Context) (int, error) {
	db, err := s.ready(ctx)
	if nil != err {
		return 0, err
	}

	n := 0
	iter := db.NewIterator(s.t.Status.withPrefix([]byte(pending.StatusPending), separator), nil)
	for iter.Next() {
		n += 1
	}
	iter.Release()
	return n, iter.Error()
}

// load the operations named by the trailing ids of an index range
func (s *Store) collect(db *leveldb.DB, r *util.Range, keep func(*pending.Mutation) bool) ([]*pending.Mutation, error) {
	ids := []uint64{}
	iter := db.NewIterator(r, nil)
	for iter.Next() {
		id, ok := trailingID(iter.Key())
		if !ok {
			iter.Release()
			return nil, fault.ErrTruncatedRecord
		}
		ids = append(ids, id)
	}
	iter.Release()
	err := iter.Error()
	if nil != err {
		return nil, err
	}

	result := make([]*pending.Mutation, 0, len(ids))
	for _, id := range ids {
		m, err := s.getOperation(db, id)
		if nil != err {
			return nil, err
		}
		if nil == m {
			s.log.Warnf("index refers to missing operation: %d", id)
			continue
		}
		if nil == keep || keep(m) {
			result = append(result, m)
		}
	}
	return result, nil
}

// nil if not found
func (s *Store) getOperation(db *leveldb.DB, id uint64) (*pending.Mutation, error) {
	data, err := db.Get(s.t.Operations.key(uint64Bytes(id)), nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	} else if nil != err {
		return nil, fmt.Errorf("read operation: %d: %w", id, err)
	}
	m, err := decodeMutation(data)
	if nil != err {
		return nil, fmt.Errorf("decode operation: %d: %w", id, err)
	}
	return m, nil
}

func (s *Store) putOperation(batch *leveldb.Batch, m *pending.Mutation) error {
	data, err := json.Marshal(m)
	if nil != err {
		return err
	}
	batch.Put(s.t.Operations.key(uint64Bytes(m.ID)), data)
	s.putIndexes(batch, m)
	return nil
}

func (s *Store) deleteOperation(batch *leveldb.Batch, m *pending.Mutation) {
	batch.Delete(s.t.Operations.key(uint64Bytes(m.ID)))
	s.deleteIndexes(batch, m)
}

func (s *Store) indexKeys(m *pending.Mutation) [][]byte {
	id := uint64Bytes(m.ID)
	return [][]byte{
		s.t.Status.key([]byte(m.Status), separator, id),
		s.t.Entity.key([]byte(m.EntityType), separator, []byte(m.EntityID), separator, id),
		s.t.Timestamp.key(timeBytes(m.CreatedAt), id),
	}
}

func (s *Store) putIndexes(batch *leveldb.Batch, m *pending.Mutation) {
	for _, k := range s.indexKeys(m) {
		batch.Put(k, nil)
	}
}

func (s *Store) deleteIndexes(batch *leveldb.Batch, m *pending.Mutation) {
	for _, k := range s.indexKeys(m) {
		batch.Delete(k)
	}
}

// must hold writer
func (s *Store) nextID(db *leveldb.DB) (uint64, error) {
	data, err := db.Get(nextIDKey, nil)
	if nil == err {
		if 8 != len(data) {
			return 0, fault.ErrTruncatedRecord
		}
		return binary.BigEndian.Uint64(data), nil
	}
	if leveldb.ErrNotFound != err {
		return 0, err
	}

	// no counter yet, continue after the highest existing id
	next := uint64(1)
	iter := db.NewIterator(s.t.Operations.all(), nil)
	if iter.Last() {
		if id, ok := trailingID(iter.Key()); ok {
			next = id + 1
		}
	}
	iter.Release()
	return next, iter.Error()
}

// oldest first, id breaks ties
func sortByCreation(ms []*pending.Mutation) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].ID < ms[j].ID
		}
		return ms[i].CreatedAt.Before(ms[j].CreatedAt)
	})
}
