// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	ErrAttemptsDecreased       = InvalidError("attempts cannot decrease")
	ErrEmptyKey                = InvalidError("key is empty")
	ErrEntityNotFound          = NotFoundError("entity not found")
	ErrFailedIsTerminal        = InvalidError("failed operation cannot change status")
	ErrHandlerAlreadyExists    = ExistsError("handler already registered")
	ErrIncompatibleDatabase    = InvalidError("incompatible database version")
	ErrInvalidBaseURL          = InvalidError("invalid base url")
	ErrInvalidCapacity         = InvalidError("capacity must be positive")
	ErrInvalidConfiguration    = InvalidError("invalid configuration")
	ErrInvalidFields           = InvalidError("fields do not match entity")
	ErrInvalidMaxAttempts      = InvalidError("maximum attempts must be positive")
	ErrInvalidPage             = InvalidError("page and page size must be positive")
	ErrInvalidStatus           = InvalidError("invalid status")
	ErrInvalidStructPointer    = InvalidError("invalid struct pointer")
	ErrMissingEntityID         = InvalidError("entity id is missing")
	ErrMissingEntityType       = InvalidError("entity type is missing")
	ErrMissingLayer            = InvalidError("cache layer is missing")
	ErrMissingPayload          = InvalidError("payload is missing")
	ErrMissingTransport        = InvalidError("transport is missing")
	ErrNoHandler               = NotFoundError("no handler for entity type")
	ErrOperationNotFound       = NotFoundError("pending operation not found")
	ErrRateLimiting            = ProcessError("rate limiting")
	ErrStoreClosed             = ProcessError("store is closed")
	ErrTruncatedRecord         = ProcessError("truncated record")
	ErrUnexpectedResponseShape = ProcessError("unexpected response shape")
	ErrUnknownKind             = InvalidError("unknown mutation kind")
	ErrUnreconciledEntity      = ProcessError("entity not yet created on server")
)

// Error - the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// determine the class of an error, looking through any wrapping
func IsErrExists(e error) bool   { var t ExistsError; return errors.As(e, &t) }
func IsErrInvalid(e error) bool  { var t InvalidError; return errors.As(e, &t) }
func IsErrNotFound(e error) bool { var t NotFoundError; return errors.As(e, &t) }
func IsErrProcess(e error) bool  { var t ProcessError; return errors.As(e, &t) }
