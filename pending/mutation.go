// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pending

import (
	"encoding/json"
	"time"

	"github.com/bitmark-inc/offlinecache/fault"
)

// DefaultMaxAttempts - replay budget for a new mutation
const DefaultMaxAttempts = 3

// Status - position in the replay life cycle
type Status string

// mutation states
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
)

// Valid - true for a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusFailed:
		return true
	default:
		return false
	}
}

// Mutation - a write recorded for later replay
type Mutation struct {
	ID          uint64
	EntityType  string
	EntityID    string
	Payload     Payload
	CreatedAt   time.Time
	Attempts    int
	MaxAttempts int
	Status      Status
	LastError   string
}

// New - a pending mutation with no attempts
func New(entityType string, entityID string, payload Payload, maxAttempts int, now time.Time) *Mutation {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Mutation{
		EntityType:  entityType,
		EntityID:    entityID,
		Payload:     payload,
		CreatedAt:   now,
		MaxAttempts: maxAttempts,
		Status:      StatusPending,
	}
}

// Kind - taken from the payload
func (m *Mutation) Kind() Kind {
	if nil == m.Payload {
		return ""
	}
	return m.Payload.Kind()
}

// Validate - check a mutation is complete enough to be queued
func (m *Mutation) Validate() error {
	if "" == m.EntityType {
		return fault.ErrMissingEntityType
	}
	if "" == m.EntityID {
		return fault.ErrMissingEntityID
	}
	if nil == m.Payload {
		return fault.ErrMissingPayload
	}
	if m.MaxAttempts <= 0 {
		return fault.ErrInvalidMaxAttempts
	}
	if !m.Status.Valid() {
		return fault.ErrInvalidStatus
	}
	return nil
}

// Exhausted - no replay attempts remain
func (m *Mutation) Exhausted() bool {
	return m.Attempts >= m.MaxAttempts
}

// Change - partial update, nil fields are left alone
type Change struct {
	Status    *Status
	Attempts  *int
	LastError *string
	EntityID  *string
}

// Apply - merge a change, all or nothing
func (m *Mutation) Apply(change Change) error {
	if nil != change.Status {
		if !change.Status.Valid() {
			return fault.ErrInvalidStatus
		}
		if StatusFailed == m.Status && StatusFailed != *change.Status {
			return fault.ErrFailedIsTerminal
		}
	}
	if nil != change.Attempts && *change.Attempts < m.Attempts {
		return fault.ErrAttemptsDecreased
	}
	if nil != change.EntityID && "" == *change.EntityID {
		return fault.ErrMissingEntityID
	}

	if nil != change.Status {
		m.Status = *change.Status
	}
	if nil != change.Attempts {
		m.Attempts = *change.Attempts
	}
	if nil != change.LastError {
		m.LastError = *change.LastError
	}
	if nil != change.EntityID {
		m.EntityID = *change.EntityID
	}
	return nil
}

// Processing - change that claims the mutation for replay
func Processing() Change {
	s := StatusProcessing
	return Change{Status: &s}
}

// Reset - change that returns an abandoned mutation to the queue
func Reset() Change {
	s := StatusPending
	return Change{Status: &s}
}

// Failure - change recording one more failed replay
//
// the status becomes failed once the budget is used up
func (m *Mutation) Failure(reason string) Change {
	attempts := m.Attempts + 1
	status := StatusPending
	if attempts >= m.MaxAttempts {
		status = StatusFailed
	}
	return Change{
		Status:    &status,
		Attempts:  &attempts,
		LastError: &reason,
	}
}

// Retarget - change pointing the mutation at another entity id
func Retarget(entityID string) Change {
	return Change{EntityID: &entityID}
}

type mutationJSON struct {
	ID          uint64          `json:"id"`
	Kind        Kind            `json:"kind"`
	EntityType  string          `json:"entityType"`
	EntityID    string          `json:"entityId"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"timestamp"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	Status      Status          `json:"status"`
	LastError   string          `json:"lastError,omitempty"`
}

// MarshalJSON - encode with an explicit kind tag
func (m Mutation) MarshalJSON() ([]byte, error) {
	if nil == m.Payload {
		return nil, fault.ErrMissingPayload
	}
	payload, err := json.Marshal(m.Payload)
	if nil != err {
		return nil, err
	}
	return json.Marshal(mutationJSON{
		ID:          m.ID,
		Kind:        m.Payload.Kind(),
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		Payload:     payload,
		CreatedAt:   m.CreatedAt,
		Attempts:    m.Attempts,
		MaxAttempts: m.MaxAttempts,
		Status:      m.Status,
		LastError:   m.LastError,
	})
}

// UnmarshalJSON - decode, selecting the payload type by kind
func (m *Mutation) UnmarshalJSON(data []byte) error {
	j := mutationJSON{}
	err := json.Unmarshal(data, &j)
	if nil != err {
		return err
	}
	payload, err := decodePayload(j.Kind, j.Payload)
	if nil != err {
		return err
	}
	*m = Mutation{
		ID:          j.ID,
		EntityType:  j.EntityType,
		EntityID:    j.EntityID,
		Payload:     payload,
		CreatedAt:   j.CreatedAt,
		Attempts:    j.Attempts,
		MaxAttempts: j.MaxAttempts,
		Status:      j.Status,
		LastError:   j.LastError,
	}
	return nil
}
