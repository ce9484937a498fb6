// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"time"
)

// Clock - source of the current time, replaceable for testing
type Clock func() time.Time

// Stats - running totals for a layer, reset only by Clear
type Stats struct {
	Size      int     `json:"size"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	Expired   uint64  `json:"expired"`
	HitRate   float64 `json:"hitRate"`
}

func hitRate(hits uint64, misses uint64) float64 {
	total := hits + misses
	if 0 == total {
		return 0
	}
	return float64(hits) / float64(total)
}
