// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind - classification of a failed remote call
type Kind int

// all possible kinds
const (
	Unknown Kind = iota
	Validation
	Network
	Authentication
	Authorization
	NotFound
	Conflict
	Server
)

// String - name of the kind
func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Network:
		return "network"
	case Authentication:
		return "authentication"
	case Authorization:
		return "authorization"
	case NotFound:
		return "not-found"
	case Conflict:
		return "conflict"
	case Server:
		return "server"
	default:
		return "unknown"
	}
}

// Error - a bare kind is usable as an errors.Is target
func (k Kind) Error() string {
	return k.String() + " error"
}

// Retryable - network and server failures may succeed later
func (k Kind) Retryable() bool {
	return Network == k || Server == k
}

// RemoteError - a failure reported by, or while reaching, the remote source
type RemoteError struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

// NewRemoteError - create a classified error
func NewRemoteError(kind Kind, status int, message string, err error) *RemoteError {
	return &RemoteError{
		Kind:    kind,
		Status:  status,
		Message: message,
		Err:     err,
	}
}

func (e *RemoteError) Error() string {
	message := e.Message
	if "" == message && nil != e.Err {
		message = e.Err.Error()
	}
	if 0 != e.Status {
		return fmt.Sprintf("%s error: status: %d: %s", e.Kind.String(), e.Status, message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind.String(), message)
}

// Unwrap - the underlying cause, if any
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is - match against a bare Kind
func (e *RemoteError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindForStatus - map an HTTP status code onto the taxonomy
func KindForStatus(status int) Kind {
	switch {
	case http.StatusBadRequest == status, http.StatusUnprocessableEntity == status:
		return Validation
	case http.StatusUnauthorized == status:
		return Authentication
	case http.StatusForbidden == status:
		return Authorization
	case http.StatusNotFound == status, http.StatusGone == status:
		return NotFound
	case http.StatusConflict == status, http.StatusPreconditionFailed == status:
		return Conflict
	case http.StatusRequestTimeout == status, http.StatusTooManyRequests == status:
		return Network
	case status >= 500 && status <= 599:
		return Server
	default:
		return Unknown
	}
}

// KindOf - classify any error
//
// timeouts and connection level failures are network errors even when
// they were not wrapped by the transport
func KindOf(err error) Kind {
	if nil == err {
		return Unknown
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Network
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Network
	}
	return Unknown
}

// IsNetwork - failure is due to connectivity rather than the request
func IsNetwork(err error) bool {
	return nil != err && Network == KindOf(err)
}

// IsRetryable - failure may succeed if tried again later
func IsRetryable(err error) bool {
	return nil != err && KindOf(err).Retryable()
}
