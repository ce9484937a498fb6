// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package transport - calls to the authoritative remote service
//
// every failure is returned as a *fault.RemoteError so that callers can
// decide between offline fallback (network) and surfacing the error
package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bitmark-inc/offlinecache/fault"
)

// Transport - the remote call contract
type Transport interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string, body interface{}) (*Response, error)
	Put(ctx context.Context, path string, body interface{}) (*Response, error)
	Patch(ctx context.Context, path string, body interface{}) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)
}

// Response - a successful reply
type Response struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Decode - unpack the reply body into out
//
// bodies wrapped as {"data": ...} are unwrapped first
func (r *Response) Decode(out interface{}) error {
	if nil == r || 0 == len(r.Data) {
		return fault.ErrUnexpectedResponseShape
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	data := r.Data
	if err := json.Unmarshal(data, &envelope); nil == err && 0 != len(envelope.Data) && "null" != string(envelope.Data) {
		data = envelope.Data
	}

	err := json.Unmarshal(data, out)
	if nil != err {
		return fmt.Errorf("%w: %s", fault.ErrUnexpectedResponseShape, err)
	}
	return nil
}
