// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"time"
)

const defaultSweepInterval = time.Minute

type purger interface {
	PurgeExpired() int
}

// background process that removes expired entries that nobody reads
type cleaner struct {
	target   purger
	interval time.Duration
}

func (c *cleaner) Run(args interface{}, shutdown <-chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.target.PurgeExpired()
		case <-shutdown:
			return
		}
	}
}

// an entry is live up to and including its expiry instant
func expired(expiresAt time.Time, now time.Time) bool {
	return !expiresAt.IsZero() && now.After(expiresAt)
}
