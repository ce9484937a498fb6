// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches.
//
// Local conditions (bad arguments, missing records, invariant
// violations) use the string classes in fault.go.  Failures of the
// remote source of truth are classified by Kind and carried by
// RemoteError so callers can decide between surfacing the error and
// falling back to offline behaviour.
package fault
