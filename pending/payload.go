// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pending

import (
	"encoding/json"

	"github.com/bitmark-inc/offlinecache/fault"
)

// Kind - the type of write
type Kind string

// mutation kinds
const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Valid - true for a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindCreate, KindUpdate, KindDelete:
		return true
	default:
		return false
	}
}

// Fields - the request body exactly as the caller supplied it
type Fields map[string]interface{}

// Payload - kind specific content of a mutation
type Payload interface {
	Kind() Kind
	sealed()
}

// CreatePayload - entity created while offline under LocalID
type CreatePayload struct {
	LocalID string `json:"localId"`
	Fields  Fields `json:"fields"`
}

// UpdatePayload - field changes to an existing entity
type UpdatePayload struct {
	Fields Fields `json:"fields"`
}

// DeletePayload - removal of an existing entity
type DeletePayload struct{}

func (CreatePayload) Kind() Kind { return KindCreate }
func (UpdatePayload) Kind() Kind { return KindUpdate }
func (DeletePayload) Kind() Kind { return KindDelete }

func (CreatePayload) sealed() {}
func (UpdatePayload) sealed() {}
func (DeletePayload) sealed() {}

// decode a payload of the given kind
func decodePayload(kind Kind, data json.RawMessage) (Payload, error) {
	if 0 == len(data) || "null" == string(data) {
		data = json.RawMessage("{}")
	}

	switch kind {
	case KindCreate:
		p := CreatePayload{}
		err := json.Unmarshal(data, &p)
		return p, err
	case KindUpdate:
		p := UpdatePayload{}
		err := json.Unmarshal(data, &p)
		return p, err
	case KindDelete:
		p := DeletePayload{}
		err := json.Unmarshal(data, &p)
		return p, err
	default:
		return nil, fault.ErrUnknownKind
	}
}
