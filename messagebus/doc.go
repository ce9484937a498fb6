// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package messagebus - broadcast of domain, sync and network events
//
// Each Bus is an explicit instance; listeners subscribe with a buffer
// size and receive every message sent after they subscribed.  Sending
// never blocks: a listener with a full buffer misses the message and
// the drop is counted.
package messagebus
