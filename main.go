// rigrun-ide - Compliance-aware model routing for the IDE.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/rigrun-ide/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args, err := cli.Parse(os.Args[1:])
	if err != nil {
		out := os.Stderr
		if args.JSON {
			out = os.Stdout
		}
		cli.DisplayError(out, "rigrun-ide", err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	env := cli.DefaultEnv()
	env.Interrupt = sigCh

	code := cli.Run(env, cmd, args)
	signal.Stop(sigCh)
	os.Exit(code)
}
