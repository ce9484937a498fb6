// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/offlinecache/configuration"
	"github.com/bitmark-inc/offlinecache/fault"
)

func writeConfiguration(t *testing.T, text string) string {
	dir := t.TempDir()
	fileName := filepath.Join(dir, "offline.conf")
	err := os.WriteFile(fileName, []byte(text), 0600)
	require.Nil(t, err, "write configuration")
	return fileName
}

func TestLoadDefaults(t *testing.T) {
	fileName := writeConfiguration(t, `return { data_directory = "." }`)
	dir := filepath.Dir(fileName)

	c, err := configuration.Load(fileName)
	require.Nil(t, err, "load")

	assert.Equal(t, dir, c.DataDirectory, "wrong data directory")
	assert.Equal(t, filepath.Join(dir, "offline.leveldb"), c.Storage.Directory, "wrong storage directory")
	assert.Equal(t, filepath.Join(dir, "log"), c.Logging.Directory, "wrong log directory")
	assert.DirExists(t, c.Logging.Directory, "log directory not created")

	assert.Equal(t, 100, c.Cache.VolatileCapacity, "wrong volatile capacity")
	assert.Equal(t, 500, c.Cache.BoundedCapacity, "wrong bounded capacity")
	assert.Equal(t, 300, c.Cache.DefaultTTL, "wrong default ttl")
	assert.Equal(t, 30, c.Synchronise.Interval, "wrong interval")
	assert.Equal(t, 3, c.Synchronise.MaxAttempts, "wrong max attempts")

	assert.Equal(t, 5*time.Minute, c.BoundedOptions().DefaultTTL, "wrong bounded options")
	assert.Equal(t, time.Minute, c.BoundedOptions().SweepInterval, "wrong sweep interval")
	assert.Equal(t, 24*time.Hour, c.RepositoryOptions().EntityTTL, "wrong entity ttl")
	assert.Equal(t, 7*24*time.Hour, c.OperationMaxAge(), "wrong operation max age")
	assert.Equal(t, 2*time.Second, c.SlowRTT(), "wrong slow rtt")
	assert.Equal(t, 30*time.Second, c.ProbeInterval(), "wrong probe interval")
}

func TestLoadOverrides(t *testing.T) {
	fileName := writeConfiguration(t, `
local M = {}
M.data_directory = arg[0]:match("(.*)/")
M.cache = {
    volatile_capacity = 10,
    bounded_capacity = 20,
    default_ttl = 60,
}
M.storage = {
    directory = "/tmp/elsewhere.leveldb",
}
M.synchronise = {
    interval = 5,
    max_attempts = 7,
}
M.transport = {
    base_url = "https://api.example.com/v1",
    rate_limit = 2.5,
}
M.logging = {
    size = 1000,
    count = 2,
    levels = {
        DEFAULT = "debug",
    },
}
return M
`)

	c, err := configuration.Load(fileName)
	require.Nil(t, err, "load")

	assert.Equal(t, filepath.Dir(fileName), c.DataDirectory, "wrong data directory")
	assert.Equal(t, 10, c.VolatileOptions().Capacity, "wrong volatile capacity")
	assert.Equal(t, 20, c.BoundedOptions().Capacity, "wrong bounded capacity")
	assert.Equal(t, time.Minute, c.BoundedOptions().DefaultTTL, "wrong ttl")
	assert.Equal(t, "/tmp/elsewhere.leveldb", c.Storage.Directory, "absolute directory changed")
	assert.Equal(t, 5*time.Second, c.SynchroniseOptions().Interval, "wrong interval")
	assert.Equal(t, 7, c.RepositoryOptions().MaxAttempts, "wrong max attempts")

	options := c.TransportOptions()
	assert.Equal(t, "https://api.example.com/v1", options.BaseURL, "wrong base url")
	assert.Equal(t, 2.5, options.RateLimit, "wrong rate")
	assert.NotNil(t, options.Tokens, "no token source")

	assert.Equal(t, 1000, c.Logging.Size, "wrong log size")
	assert.Equal(t, "debug", c.Logging.Levels["DEFAULT"], "wrong log level")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no data directory", `return {}`},
		{"home data directory", `return { data_directory = "~" }`},
		{"negative capacity", `return { data_directory = ".", cache = { bounded_capacity = -1 } }`},
		{"zero attempts", `return { data_directory = ".", synchronise = { max_attempts = 0 } }`},
		{"log file path", `return { data_directory = ".", logging = { file = "a/b.log" } }`},
		{"bad base url", `return { data_directory = ".", transport = { base_url = "not a url" } }`},
		{"not a table", `return 42`},
	}

	for _, item := range tests {
		_, err := configuration.Load(writeConfiguration(t, item.text))
		assert.NotNil(t, err, "%s: no error", item.name)
		if "not a table" != item.name {
			assert.True(t, fault.IsErrInvalid(err), "%s: wrong error: %v", item.name, err)
		}
	}

	_, err := configuration.Load(writeConfiguration(t, `return {`))
	assert.NotNil(t, err, "syntax error accepted")

	_, err = configuration.Load(filepath.Join(t.TempDir(), "missing.conf"))
	assert.NotNil(t, err, "missing file accepted")
}

func TestParseConfigurationFileNeedsStructPointer(t *testing.T) {
	fileName := writeConfiguration(t, `return {}`)

	s := struct{}{}
	assert.Equal(t, fault.ErrInvalidStructPointer, configuration.ParseConfigurationFile(fileName, s), "accepted a value")

	n := 0
	assert.Equal(t, fault.ErrInvalidStructPointer, configuration.ParseConfigurationFile(fileName, &n), "accepted non-struct")
}

func TestEnsureAbsolute(t *testing.T) {
	assert.Equal(t, "/a/b/c", configuration.EnsureAbsolute("/a", "b/c"), "relative")
	assert.Equal(t, "/x/y", configuration.EnsureAbsolute("/a", "/x/y"), "absolute")
	assert.Equal(t, "/a/c", configuration.EnsureAbsolute("/a", "b/../c"), "cleaned")
}
