// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - durable cache, mutation queue and sync metadata
//
// all records live in a single LevelDB database; each table is
// identified by a one byte key prefix:
//
//   C  cache records          key                                -> {value, timestamp, expiresAt}
//   X  cache expiry index     expiresAt(8) ++ key                -> nil
//   P  pending operations     id(8)                              -> mutation
//   S  status index           status ++ 0x00 ++ id(8)            -> nil
//   E  entity index           type ++ 0x00 ++ entity ++ 0x00 ++ id(8) -> nil
//   T  timestamp index        createdAt(8) ++ id(8)              -> nil
//   M  sync metadata          key                                -> {key, lastSyncTimestamp, version}
//
// numbers are big endian so that iteration follows numeric order;
// two reserved records beginning with 0x00 hold the schema version
// and the next pending operation id
package storage
