// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package network

import (
	"context"
	"net/http"
	"time"

	"github.com/bitmark-inc/logger"
)

// defaults for probing
const (
	DefaultProbeInterval = 15 * time.Second
	DefaultProbeTimeout  = 5 * time.Second
)

// Prober - background process measuring reachability of a URL
type Prober struct {
	log      *logger.L
	url      string
	interval time.Duration
	timeout  time.Duration
	client   *http.Client
	reporter Reporter
}

// NewProber - probe url every interval and report to reporter
func NewProber(log *logger.L, reporter Reporter, url string, interval time.Duration, timeout time.Duration) *Prober {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		log:      log,
		url:      url,
		interval: interval,
		timeout:  timeout,
		client:   &http.Client{},
		reporter: reporter,
	}
}

// Probe - one measurement, reported before returning
//
// any HTTP response counts as reachable
func (p *Prober) Probe(parent context.Context) Status {
	ctx, cancel := context.WithTimeout(parent, p.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if nil != err {
		p.log.Errorf("probe: %q  error: %s", p.url, err)
		return p.reporter.Report(false, nil)
	}

	start := time.Now()
	response, err := p.client.Do(request)
	if nil != err && nil != parent.Err() {
		// shutting down, not an observation
		return Offline
	}
	if nil != err {
		p.log.Debugf("probe: %q  error: %s", p.url, err)
		return p.reporter.Report(false, nil)
	}
	response.Body.Close()

	rtt := time.Since(start)
	p.log.Debugf("probe: %q  status: %d  rtt: %s", p.url, response.StatusCode, rtt)
	return p.reporter.Report(true, &Quality{RTT: rtt})
}

// Run - probe immediately and then on each interval until shutdown
func (p *Prober) Run(args interface{}, shutdown <-chan struct{}) {
	log := p.log

	log.Info("starting…")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	p.Probe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			p.Probe(ctx)
		}
	}

	log.Info("finished")
}
