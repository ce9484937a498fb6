// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// offline-cli - inspect and maintain an offline cache store
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"

	"github.com/bitmark-inc/offlinecache/configuration"
	"github.com/bitmark-inc/offlinecache/storage"
)

type metadata struct {
	file    string
	config  *configuration.Configuration
	store   *storage.Store
	log     *logger.L
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {
	defer exitwithstatus.Handler()

	app := cli.NewApp()
	app.Name = "offline-cli"
	app.Usage = "inspect the durable store of an offline cache"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:  "config-file, c",
			Value: "offline.conf",
			Usage: " Lua configuration `FILE`",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "pending",
			Usage:  "list every queued mutation, oldest first",
			Action: runPending,
		},
		{
			Name:   "failed",
			Usage:  "list mutations that used up their attempts",
			Action: runFailed,
		},
		{
			Name:   "count",
			Usage:  "number of mutations waiting for replay",
			Action: runCount,
		},
		{
			Name:      "metadata",
			Usage:     "show sync metadata",
			ArgsUsage: "KEY",
			Action:    runMetadata,
		},
		{
			Name:   "cleanup-cache",
			Usage:  "remove expired cache records",
			Action: runCleanupCache,
		},
		{
			Name:  "clear-cache",
			Usage: "remove cache records, all of them unless a prefix is given",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "prefix, p",
					Value: "",
					Usage: " only keys beginning with `PREFIX`",
				},
			},
			Action: runClearCache,
		},
		{
			Name:  "cleanup-operations",
			Usage: "remove queued mutations older than an age",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "age, a",
					Value: 0,
					Usage: " maximum age in `SECONDS` [storage.operation_max_age]",
				},
			},
			Action: runCleanupOperations,
		},
		{
			Name:   "reset-processing",
			Usage:  "return mutations stuck in processing to the queue",
			Action: runResetProcessing,
		},
		{
			Name:  "version",
			Usage: "display offline-cli version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	// read the configuration and open the store
	app.Before = func(c *cli.Context) error {

		e := c.App.ErrWriter
		w := c.App.Writer
		verbose := c.GlobalBool("verbose")

		// to suppress reading config file if certain commands
		command := c.Args().Get(0)
		if "" == command || "version" == command || "help" == command || "h" == command {
			return nil
		}

		file := c.GlobalString("config-file")
		if verbose {
			fmt.Fprintf(e, "reading config file: %s\n", file)
		}

		config, err := configuration.Load(file)
		if nil != err {
			return err
		}

		err = logger.Initialise(config.Logging)
		if nil != err {
			return err
		}

		log := logger.New("main")
		log.Info("starting…")

		store := storage.New(logger.New("storage"), config.Storage.Directory)
		err = store.Open(context.Background())
		if nil != err {
			logger.Finalise()
			return err
		}

		c.App.Metadata["config"] = &metadata{
			file:    file,
			config:  config,
			store:   store,
			log:     log,
			verbose: verbose,
			e:       e,
			w:       w,
		}
		return nil
	}

	app.After = func(c *cli.Context) error {
		m, ok := c.App.Metadata["config"].(*metadata)
		if !ok {
			return nil
		}
		err := m.store.Close()
		m.log.Info("finished")
		logger.Finalise()
		return err
	}

	err := app.Run(os.Args)
	if nil != err {
		exitwithstatus.Message("terminated with error: %s", err)
	}
}
