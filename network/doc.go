// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package network - connectivity status and change notification
//
// a Tracker holds the current status and broadcasts a Change on the
// "status" command whenever it moves; a Prober feeds a Tracker by
// timing requests to a known URL
package network
