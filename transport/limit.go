// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/offlinecache/fault"
)

// wait for the limiter to allow a single request
func limit(ctx context.Context, limiter *rate.Limiter) error {
	if nil == limiter {
		return nil
	}
	r := limiter.Reserve()
	if !r.OK() {
		return fault.ErrRateLimiting
	}

	delay := r.Delay()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
