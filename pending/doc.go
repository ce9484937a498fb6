// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pending - writes waiting for confirmation by the remote source
//
// a Mutation is recorded whenever a write is applied locally without
// reaching the remote service; its payload is one of three shapes
// selected by Kind:
//
//   create  CreatePayload{LocalID, Fields}
//   update  UpdatePayload{Fields}
//   delete  DeletePayload{}
//
// status moves pending -> processing -> (removed | pending | failed)
// and never leaves failed; attempts only ever increase
package pending
