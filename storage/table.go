// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"time"

	"github.com/syndtr/goleveldb/leveldb/util"
)

// table - a key range selected by a single byte prefix
type table struct {
	prefix byte
	limit  []byte
}

// the set of tables, all fields must be exported for initialisation
type tables struct {
	Cache      *table `prefix:"C"`
	Expiry     *table `prefix:"X"`
	Operations *table `prefix:"P"`
	Status     *table `prefix:"S"`
	Entity     *table `prefix:"E"`
	Timestamp  *table `prefix:"T"`
	Metadata   *table `prefix:"M"`
}

// fill in each table from its struct tag
func newTables() (tables, error) {
	t := tables{}

	tablesType := reflect.TypeOf(t)
	tablesValue := reflect.ValueOf(&t).Elem()

	for i := 0; i < tablesType.NumField(); i += 1 {
		fieldInfo := tablesType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			return t, fmt.Errorf("table: %s has invalid prefix: %q", fieldInfo.Name, prefixTag)
		}

		prefix := prefixTag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}
		tablesValue.Field(i).Set(reflect.ValueOf(&table{
			prefix: prefix,
			limit:  limit,
		}))
	}
	return t, nil
}

// prepend the prefix onto the key
func (t *table) key(parts ...[]byte) []byte {
	n := 1
	for _, p := range parts {
		n += len(p)
	}
	k := make([]byte, 1, n)
	k[0] = t.prefix
	for _, p := range parts {
		k = append(k, p...)
	}
	return k
}

// strip the prefix, returning a copy
func (t *table) unprefix(key []byte) []byte {
	k := make([]byte, len(key)-1)
	copy(k, key[1:])
	return k
}

// every key in the table
func (t *table) all() *util.Range {
	return &util.Range{
		Start: []byte{t.prefix},
		Limit: t.limit,
	}
}

// keys in the table starting with the given bytes
func (t *table) withPrefix(parts ...[]byte) *util.Range {
	return util.BytesPrefix(t.key(parts...))
}

// keys in the table strictly less than the given bytes
func (t *table) before(parts ...[]byte) *util.Range {
	return &util.Range{
		Start: []byte{t.prefix},
		Limit: t.key(parts...),
	}
}

// separates variable length key components
var separator = []byte{0x00}

func uint64Bytes(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// times before the epoch sort as zero
func timeBytes(t time.Time) []byte {
	n := t.UnixNano()
	if n < 0 {
		n = 0
	}
	return uint64Bytes(uint64(n))
}

// the trailing eight bytes of an index key
func trailingID(key []byte) (uint64, bool) {
	if len(key) < 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(key)-8:]), true
}
