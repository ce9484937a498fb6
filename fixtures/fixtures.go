// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures - shared set-up for package tests
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"
)

// LogCategory - log file prefix used by tests
const LogCategory = "testing"

var directory string

// SetupTestLogger - start logging to a throw-away directory
func SetupTestLogger() {
	removeFiles()

	dir, err := os.MkdirTemp("", "offlinecache-"+LogCategory+"-")
	if nil != err {
		fmt.Println("create log dir with error: ", err)
		return
	}
	directory = dir

	logging := logger.Configuration{
		Directory: directory,
		File:      fmt.Sprintf("%s.log", LogCategory),
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

// TeardownTestLogger - stop logging and remove the log files
func TeardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

// LogFile - path of the current test log
func LogFile() string {
	return filepath.Join(directory, LogCategory+".log")
}

func removeFiles() {
	if "" == directory {
		return
	}
	err := os.RemoveAll(directory)
	if nil != err {
		fmt.Println("remove dir with error: ", err)
	}
	directory = ""
}
