// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package repository

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bitmark-inc/offlinecache/cache"
	"github.com/bitmark-inc/offlinecache/storage"
	"github.com/bitmark-inc/offlinecache/synchronise"
)

// OfflinePrefix - marks ids synthesised while offline
const OfflinePrefix = "offline_"

// defaults
const (
	DefaultEntityTTL = 24 * time.Hour
	DefaultListTTL   = 5 * time.Minute
)

// message bus commands, item is an Event
const (
	CreatedCommand    = "created"
	UpdatedCommand    = "updated"
	DeletedCommand    = "deleted"
	ReconciledCommand = "reconciled"
)

// JSON fields every entity must carry
const (
	idField        = "id"
	createdAtField = "createdAt"
	updatedAtField = "updatedAt"
)

// Resource - describes the entity collection served by a repository
type Resource[E any] interface {
	Type() string           // entity type, also the queue's entityType
	Path() string           // collection path on the remote
	Identify(entity E) string
	Matches(entity E, term string) bool // term is already lower case
}

// Layers - the caches shared by all repositories of a process
type Layers struct {
	Volatile *cache.Volatile[any]
	Bounded  *cache.Bounded[any]
	Store    *storage.Store
}

// Drainer - replays the queued mutations of one entity type
type Drainer interface {
	DrainEntity(ctx context.Context, entityType string) (synchronise.Result, error)
}

// Options - construction parameters
type Options struct {
	EntityTTL   time.Duration // store lifetime of an entity record
	ListTTL     time.Duration // bounded and store lifetime of a list page
	MaxAttempts int           // replay budget of queued mutations
	Clock       func() time.Time
	Sync        Drainer // optional, drained on reconnect
}

// ListParams - one page request
type ListParams struct {
	Page     int
	PageSize int
	Search   string
}

// Page - one page of entities
type Page[E any] struct {
	Data       []E `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`

	// built from cached entities rather than fetched
	Local bool `json:"-"`
}

// Event - item sent with each bus command
type Event struct {
	EntityType string
	ID         string
	PreviousID string      // reconciled only: the offline id
	Entity     interface{} // *E, nil for deletes
	Offline    bool        // applied locally and queued
}

// IsOffline - true for an id synthesised while offline
func IsOffline(id string) bool {
	return strings.HasPrefix(id, OfflinePrefix)
}

func entityPrefix(entityType string) string {
	return "entity:" + entityType + ":"
}

func entityKey(entityType string, id string) string {
	return entityPrefix(entityType) + id
}

func listPrefix(entityType string) string {
	return "list:" + entityType + ":"
}

func listKey(entityType string, params ListParams) string {
	return listPrefix(entityType) +
		strconv.Itoa(params.Page) + ":" +
		strconv.Itoa(params.PageSize) + ":" +
		url.QueryEscape(strings.ToLower(params.Search))
}

func metadataKey(entityType string) string {
	return "list:" + entityType
}
