// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTokenExpiry - lifetime of a session token
const DefaultTokenExpiry = 30 * time.Minute

const (
	tokenKey   = "csrf"
	tokenBytes = 32
)

// TokenSource - supplies the anti-forgery token for mutating calls
type TokenSource interface {
	Token() (string, error)
	Invalidate()
}

// SessionTokens - locally generated token reused until it expires
// or the server rejects it
//
// a server issued token should replace this once the remote service
// provides one
type SessionTokens struct {
	sync.Mutex
	items *gocache.Cache
}

// NewSessionTokens - tokens live for expiry (<= 0 selects the default)
func NewSessionTokens(expiry time.Duration) *SessionTokens {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &SessionTokens{
		items: gocache.New(expiry, expiry),
	}
}

// Token - the current token, generating a new one when needed
func (s *SessionTokens) Token() (string, error) {
	s.Lock()
	defer s.Unlock()

	if t, found := s.items.Get(tokenKey); found {
		return t.(string), nil
	}

	buffer := make([]byte, tokenBytes)
	_, err := rand.Read(buffer)
	if nil != err {
		return "", err
	}
	t := hex.EncodeToString(buffer)
	s.items.Set(tokenKey, t, gocache.DefaultExpiration)
	return t, nil
}

// Invalidate - discard the current token
func (s *SessionTokens) Invalidate() {
	s.items.Delete(tokenKey)
}
