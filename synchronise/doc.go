// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package synchronise - replay queued mutations against the remote service
//
// a drain takes every pending mutation, oldest first, and hands it to the
// handler registered for its entity type:
//
//   success  the mutation is deleted
//   failure  attempts is incremented; the mutation returns to pending,
//            or becomes failed once its attempts are used up
//
// only one drain runs at a time; a drain requested while another is in
// progress returns immediately with Result.Skipped set
package synchronise
