// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/offlinecache/cache"
	"github.com/bitmark-inc/offlinecache/fault"
	"github.com/bitmark-inc/offlinecache/network"
	"github.com/bitmark-inc/offlinecache/pending"
	"github.com/bitmark-inc/offlinecache/repository"
	"github.com/bitmark-inc/offlinecache/synchronise"
	"github.com/bitmark-inc/offlinecache/transport"
)

// basic defaults (directories are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultStorageDirectory = "offline.leveldb"

	defaultLogDirectory = "log"
	defaultLogFile      = "offlinecache.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultVolatileWeight  = 1       // seconds
	defaultSweepInterval   = 60      // seconds
	defaultEntityTTL       = 86400   // seconds
	defaultOperationMaxAge = 7 * 86400
	defaultTokenExpiry     = 30 * 60
	defaultProbeInterval   = 30
)

// to hold log levels
type LoglevelMap map[string]string

// a fresh map each time, the parser writes into it
func defaultLogLevels() LoglevelMap {
	return LoglevelMap{
		logger.DefaultTag: "critical",
	}
}

// CacheType - the in-memory layers
type CacheType struct {
	VolatileCapacity int `gluamapper:"volatile_capacity" json:"volatile_capacity"`
	VolatileWeight   int `gluamapper:"volatile_weight" json:"volatile_weight"`
	BoundedCapacity  int `gluamapper:"bounded_capacity" json:"bounded_capacity"`
	DefaultTTL       int `gluamapper:"default_ttl" json:"default_ttl"`
	SweepInterval    int `gluamapper:"sweep_interval" json:"sweep_interval"`
}

// StorageType - the durable store
type StorageType struct {
	Directory       string `gluamapper:"directory" json:"directory"`
	EntityTTL       int    `gluamapper:"entity_ttl" json:"entity_ttl"`
	OperationMaxAge int    `gluamapper:"operation_max_age" json:"operation_max_age"`
}

// SynchroniseType - queue replay
type SynchroniseType struct {
	Interval    int `gluamapper:"interval" json:"interval"`
	MaxAttempts int `gluamapper:"max_attempts" json:"max_attempts"`
}

// TransportType - the remote service
type TransportType struct {
	BaseURL     string  `gluamapper:"base_url" json:"base_url"`
	Timeout     int     `gluamapper:"timeout" json:"timeout"`
	TokenExpiry int     `gluamapper:"token_expiry" json:"token_expiry"`
	RateLimit   float64 `gluamapper:"rate_limit" json:"rate_limit"`
	RateBurst   int     `gluamapper:"rate_burst" json:"rate_burst"`
}

// NetworkType - connectivity probing
type NetworkType struct {
	ProbeURL      string `gluamapper:"probe_url" json:"probe_url"`
	ProbeInterval int    `gluamapper:"probe_interval" json:"probe_interval"`
	SlowRTT       int    `gluamapper:"slow_rtt" json:"slow_rtt"`
}

// Configuration - everything read from the file
type Configuration struct {
	DataDirectory string               `gluamapper:"data_directory" json:"data_directory"`
	Cache         CacheType            `gluamapper:"cache" json:"cache"`
	Storage       StorageType          `gluamapper:"storage" json:"storage"`
	Synchronise   SynchroniseType      `gluamapper:"synchronise" json:"synchronise"`
	Transport     TransportType        `gluamapper:"transport" json:"transport"`
	Network       NetworkType          `gluamapper:"network" json:"network"`
	Logging       logger.Configuration `gluamapper:"logging" json:"logging"`
}

// Load - will read decode and verify the configuration
func Load(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,

		Cache: CacheType{
			VolatileCapacity: cache.DefaultVolatileCapacity,
			VolatileWeight:   defaultVolatileWeight,
			BoundedCapacity:  cache.DefaultBoundedCapacity,
			DefaultTTL:       seconds(cache.DefaultTTL),
			SweepInterval:    defaultSweepInterval,
		},

		Storage: StorageType{
			Directory:       defaultStorageDirectory,
			EntityTTL:       defaultEntityTTL,
			OperationMaxAge: defaultOperationMaxAge,
		},

		Synchronise: SynchroniseType{
			Interval:    seconds(synchronise.DefaultInterval),
			MaxAttempts: pending.DefaultMaxAttempts,
		},

		Transport: TransportType{
			Timeout:     seconds(transport.DefaultTimeout),
			TokenExpiry: defaultTokenExpiry,
			RateLimit:   transport.DefaultRateLimit,
			RateBurst:   transport.DefaultRateBurst,
		},

		Network: NetworkType{
			ProbeInterval: defaultProbeInterval,
			SlowRTT:       seconds(network.DefaultSlowRTT),
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels(),
		},
	}

	if err := ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("%w: path: %q is not a valid directory", fault.ErrInvalidConfiguration, options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	}
	options.DataDirectory = filepath.Clean(options.DataDirectory)

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("%w: path: %q is not a directory", fault.ErrInvalidConfiguration, options.DataDirectory)
	}

	// fail if this is not a simple file name
	switch filepath.Dir(options.Logging.File) {
	case "", ".":
	default:
		return nil, fmt.Errorf("%w: files: %q is not plain name", fault.ErrInvalidConfiguration, options.Logging.File)
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Storage.Directory,
		&options.Logging.Directory,
	} {
		*d = EnsureAbsolute(options.DataDirectory, *d)
	}
	if err := os.MkdirAll(options.Logging.Directory, 0700); nil != err {
		return nil, err
	}

	if err := options.validate(); nil != err {
		return nil, err
	}

	// done
	return options, nil
}

func (c *Configuration) validate() error {
	positive := map[string]int{
		"cache.volatile_capacity":   c.Cache.VolatileCapacity,
		"cache.volatile_weight":     c.Cache.VolatileWeight,
		"cache.bounded_capacity":    c.Cache.BoundedCapacity,
		"cache.default_ttl":         c.Cache.DefaultTTL,
		"cache.sweep_interval":      c.Cache.SweepInterval,
		"storage.entity_ttl":        c.Storage.EntityTTL,
		"storage.operation_max_age": c.Storage.OperationMaxAge,
		"synchronise.interval":      c.Synchronise.Interval,
		"synchronise.max_attempts":  c.Synchronise.MaxAttempts,
		"transport.timeout":         c.Transport.Timeout,
		"transport.token_expiry":    c.Transport.TokenExpiry,
		"transport.rate_burst":      c.Transport.RateBurst,
		"network.probe_interval":    c.Network.ProbeInterval,
		"network.slow_rtt":          c.Network.SlowRTT,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%w: %s: %d must be positive", fault.ErrInvalidConfiguration, name, value)
		}
	}
	if c.Transport.RateLimit <= 0 {
		return fmt.Errorf("%w: transport.rate_limit: %g must be positive", fault.ErrInvalidConfiguration, c.Transport.RateLimit)
	}

	// base url is optional, local inspection needs no remote
	for _, u := range []string{c.Transport.BaseURL, c.Network.ProbeURL} {
		if "" == u {
			continue
		}
		parsed, err := url.Parse(u)
		if nil != err || "" == parsed.Scheme || "" == parsed.Host {
			return fmt.Errorf("%w: %q", fault.ErrInvalidBaseURL, u)
		}
	}
	return nil
}

// VolatileOptions - settings for cache.NewVolatile
func (c *Configuration) VolatileOptions() cache.VolatileOptions {
	return cache.VolatileOptions{
		Capacity: c.Cache.VolatileCapacity,
		Weight:   duration(c.Cache.VolatileWeight),
	}
}

// BoundedOptions - settings for cache.NewBounded
func (c *Configuration) BoundedOptions() cache.BoundedOptions {
	return cache.BoundedOptions{
		Capacity:      c.Cache.BoundedCapacity,
		DefaultTTL:    duration(c.Cache.DefaultTTL),
		SweepInterval: duration(c.Cache.SweepInterval),
	}
}

// TransportOptions - settings for transport.NewClient
func (c *Configuration) TransportOptions() transport.Options {
	return transport.Options{
		BaseURL:   c.Transport.BaseURL,
		Timeout:   duration(c.Transport.Timeout),
		RateLimit: c.Transport.RateLimit,
		RateBurst: c.Transport.RateBurst,
		Tokens:    transport.NewSessionTokens(duration(c.Transport.TokenExpiry)),
	}
}

// SynchroniseOptions - settings for synchronise.New, sweeper is not set
func (c *Configuration) SynchroniseOptions() synchronise.Options {
	return synchronise.Options{
		Interval: duration(c.Synchronise.Interval),
	}
}

// RepositoryOptions - settings for repository.New, the drainer is not set
func (c *Configuration) RepositoryOptions() repository.Options {
	return repository.Options{
		EntityTTL:   duration(c.Storage.EntityTTL),
		MaxAttempts: c.Synchronise.MaxAttempts,
	}
}

// OperationMaxAge - age after which queued operations are discarded
func (c *Configuration) OperationMaxAge() time.Duration {
	return duration(c.Storage.OperationMaxAge)
}

// ProbeInterval - time between connectivity probes
func (c *Configuration) ProbeInterval() time.Duration {
	return duration(c.Network.ProbeInterval)
}

// SlowRTT - round trip above which the link counts as slow
func (c *Configuration) SlowRTT() time.Duration {
	return duration(c.Network.SlowRTT)
}

// EnsureAbsolute - ensure the path is absolute
func EnsureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}

func duration(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
