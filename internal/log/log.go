// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package log is this module's thin wrapper over github.com/ipfs/go-log/v2,
// the same structured logging library the corpus's test suites pull in.
// Setup mirrors the original client's dual stdout+file sink and
// occurrences-of(-v) verbosity mapping.
package log

import (
	"fmt"

	golog "github.com/ipfs/go-log/v2"
)

// Logger is this package's exported logger handle, named after the module
// the way the corpus names its per-package loggers ("tss-lib", "tss-lib:sign").
var Logger = golog.Logger("sign-client")

// Setup configures the subsystem's level from a -v occurrence count and
// points go-log at a per-peer log file in addition to stdout.
//
//	0 -> Info, 1+ -> Debug
func Setup(verbosity int, peerIndex int) {
	level := golog.LevelInfo
	if verbosity >= 1 {
		level = golog.LevelDebug
	}
	golog.SetAllLoggers(level)

	golog.SetupLogging(golog.Config{
		Stderr: false,
		Stdout: true,
		Level:  level,
		File:   fmt.Sprintf("log-sign-%d.log", peerIndex),
		Format: golog.ColorizedOutput,
	})
}
