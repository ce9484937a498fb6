// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	"golang.org/x/sync/singleflight"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/offlinecache/fault"
	"github.com/bitmark-inc/offlinecache/pending"
)

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

// next pending operation id
var nextIDKey = []byte{0x00, 'N', 'E', 'X', 'T', 'I', 'D'}

// schema versions
//
//   1  cache, operations and metadata only
//   2  adds status, entity and timestamp indexes
const (
	firstDBVersion   = 1
	currentDBVersion = 2
)

// Store - durable layer shared by every repository
//
// the database is opened on first use; all callers arriving while
// it is opening wait for the same attempt, and a failure is kept
// and returned to every later caller
type Store struct {
	sync.RWMutex
	log       *logger.L
	directory string
	clock     func() time.Time

	group  singleflight.Group
	db     *leveldb.DB
	err    error
	closed bool

	// serialises read-modify-write sequences
	writer sync.Mutex

	t tables
}

// New - create a store for the database in directory
//
// nothing is opened until Open or the first access
func New(log *logger.L, directory string) *Store {
	return &Store{
		log:       log,
		directory: directory,
		clock:     time.Now,
	}
}

// Open - wait for the database to be ready
func (s *Store) Open(ctx context.Context) error {
	_, err := s.ready(ctx)
	return err
}

// Close - release the database, further access fails
func (s *Store) Close() error {
	s.Lock()
	defer s.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if nil == s.db {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.log.Info("closed")
	return err
}

func (s *Store) ready(ctx context.Context) (*leveldb.DB, error) {
	s.RLock()
	db, err, closed := s.db, s.err, s.closed
	s.RUnlock()

	switch {
	case closed:
		return nil, fault.ErrStoreClosed
	case nil != err:
		return nil, err
	case nil != db:
		return db, nil
	}

	c := s.group.DoChan("open", func() (interface{}, error) {
		return s.open()
	})

	select {
	case r := <-c:
		if nil != r.Err {
			return nil, r.Err
		}
		return r.Val.(*leveldb.DB), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) open() (*leveldb.DB, error) {
	s.Lock()
	defer s.Unlock()

	if s.closed {
		return nil, fault.ErrStoreClosed
	}
	if nil != s.err {
		return nil, s.err
	}
	if nil != s.db {
		return s.db, nil
	}

	s.log.Infof("opening: %s", s.directory)

	db, err := s.initialise()
	if nil != err {
		s.log.Criticalf("initialise: %s  error: %s", s.directory, err)
		s.err = err
		return nil, err
	}
	s.db = db
	return db, nil
}

// must hold lock
func (s *Store) initialise() (*leveldb.DB, error) {
	t, err := newTables()
	if nil != err {
		return nil, err
	}
	s.t = t

	db, version, err := getDB(s.directory)
	if nil != err {
		return nil, err
	}

	ok := false
	defer func() {
		if !ok {
			db.Close()
		}
	}()

	// ensure no database downgrade
	if version > currentDBVersion {
		return nil, fmt.Errorf("%w: version: %d > current version: %d", fault.ErrIncompatibleDatabase, version, currentDBVersion)
	}

	switch version {
	case 0:
		// database was empty so tag as current version
		err = putVersion(db, currentDBVersion)
	case firstDBVersion:
		s.log.Warnf("database version: %d < current version: %d", version, currentDBVersion)
		err = s.migrate(db)
	}
	if nil != err {
		return nil, err
	}

	ok = true
	return db, nil
}

// rebuild the secondary indexes from the operation records
func (s *Store) migrate(db *leveldb.DB) error {
	batch := new(leveldb.Batch)

	iter := db.NewIterator(s.t.Operations.all(), nil)
	n := 0
	for iter.Next() {
		m, err := decodeMutation(iter.Value())
		if nil != err {
			iter.Release()
			return fmt.Errorf("migrate operation: %x: %w", iter.Key(), err)
		}
		s.putIndexes(batch, m)
		n += 1
	}
	iter.Release()
	err := iter.Error()
	if nil != err {
		return err
	}

	batch.Put(versionKey, versionBytes(currentDBVersion))
	err = db.Write(batch, nil)
	if nil != err {
		return err
	}
	s.log.Infof("migrated: %d operations to version: %d", n, currentDBVersion)
	return nil
}

// return:
//   database handle
//   version number
func getDB(name string) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("%w: version length: expected: %d  actual: %d", fault.ErrIncompatibleDatabase, 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func versionBytes(version int) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(version))
	return b
}

func putVersion(db *leveldb.DB, version int) error {
	return db.Put(versionKey, versionBytes(version), nil)
}

func decodeMutation(data []byte) (*pending.Mutation, error) {
	m := &pending.Mutation{}
	err := m.UnmarshalJSON(data)
	if nil != err {
		return nil, err
	}
	return m, nil
}
