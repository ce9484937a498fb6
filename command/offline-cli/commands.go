// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli"
)

func runPending(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	ms, err := m.store.GetPendingOperations(context.Background())
	if nil != err {
		return err
	}
	return printJson(m.w, ms)
}

func runFailed(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	ms, err := m.store.GetFailedOperations(context.Background())
	if nil != err {
		return err
	}
	return printJson(m.w, ms)
}

func runCount(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	n, err := m.store.GetPendingCount(context.Background())
	if nil != err {
		return err
	}
	return printJson(m.w, map[string]int{"pending": n})
}

func runMetadata(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	key := c.Args().Get(0)
	if "" == key {
		return fmt.Errorf("metadata KEY is required")
	}

	meta, err := m.store.GetSyncMetadata(context.Background(), key)
	if nil != err {
		return err
	}
	if nil == meta {
		return fmt.Errorf("no sync metadata for: %q", key)
	}
	return printJson(m.w, meta)
}

func runCleanupCache(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	n, err := m.store.CleanupExpiredCache(context.Background())
	if nil != err {
		return err
	}
	m.log.Infof("cleanup cache: %d", n)
	return printJson(m.w, map[string]int{"removed": n})
}

func runClearCache(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)
	ctx := context.Background()

	prefix := c.String("prefix")
	if "" == prefix {
		if m.verbose {
			fmt.Fprintf(m.e, "clearing all cache records\n")
		}
		return m.store.ClearAllCache(ctx)
	}

	n, err := m.store.ClearCacheByPrefix(ctx, prefix)
	if nil != err {
		return err
	}
	m.log.Infof("clear cache: %q  removed: %d", prefix, n)
	return printJson(m.w, map[string]int{"removed": n})
}

func runCleanupOperations(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	age := m.config.OperationMaxAge()
	if seconds := c.Int("age"); seconds > 0 {
		age = time.Duration(seconds) * time.Second
	}
	if m.verbose {
		fmt.Fprintf(m.e, "removing operations older than: %s\n", age)
	}

	n, err := m.store.CleanupOldOperations(context.Background(), age)
	if nil != err {
		return err
	}
	m.log.Infof("cleanup operations: age: %s  removed: %d", age, n)
	return printJson(m.w, map[string]int{"removed": n})
}

func runResetProcessing(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	n, err := m.store.ResetProcessing(context.Background())
	if nil != err {
		return err
	}
	return printJson(m.w, map[string]int{"reset": n})
}
