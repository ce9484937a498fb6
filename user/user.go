// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package user - the user entity collection
package user

import (
	"strings"
	"time"
)

// EntityType - queue and cache name of users
const EntityType = "user"

// Path - remote collection
const Path = "/users"

// User - a user record as exchanged with the remote
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Resource - describes users to a repository
type Resource struct{}

// Type - entity type
func (Resource) Type() string { return EntityType }

// Path - remote collection path
func (Resource) Path() string { return Path }

// Identify - id of a user
func (Resource) Identify(u User) string { return u.ID }

// Matches - term is contained in the first name, last name or email
func (Resource) Matches(u User, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(u.FirstName), term) ||
		strings.Contains(strings.ToLower(u.LastName), term) ||
		strings.Contains(strings.ToLower(u.Email), term)
}
