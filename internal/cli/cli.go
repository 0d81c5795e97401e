// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
)

// Version information (overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the top-level CLI command.
type Command int

const (
	CmdHelp Command = iota
	CmdRoute
	CmdClassify
	CmdModels
	CmdConfig
	CmdAudit
	CmdServe
	CmdVersion
)

var commandNames = [...]string{
	CmdHelp:     "help",
	CmdRoute:    "route",
	CmdClassify: "classify",
	CmdModels:   "models",
	CmdConfig:   "config",
	CmdAudit:    "audit",
	CmdServe:    "serve",
	CmdVersion:  "version",
}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[c]
}

// Args holds the parsed command line.
type Args struct {
	// JSON selects the JSON envelope output.
	JSON bool

	// ConfigPath overrides the default config file.
	ConfigPath string

	// Parser holds the command's own flags and positionals.
	Parser *ArgParser
}

// boolFlags lists every flag that never takes a value.
var boolFlags = []string{"json", "help", "h", "explain", "onprem", "cloud", "version", "verbose"}

const usageText = `rigrun-ide - compliance-aware model routing for the IDE

Decides whether a task may run on a cloud model or must stay on an
on-premises model, based on the task, the data classification and the
target environment. Every decision is audited.

Usage:
  rigrun-ide route <task...>            Route a task and print the decision
  rigrun-ide classify <task...>         Show the task category
  rigrun-ide models                     List on-prem and cloud models
  rigrun-ide config show                Show the effective configuration
  rigrun-ide config get <key>           Read one setting
  rigrun-ide config set <key> <value>   Change one setting
  rigrun-ide config path                Print the config file path
  rigrun-ide audit show [--lines N]     Show recent routing decisions
  rigrun-ide audit verify [--file F]    Verify the audit log seal chain
  rigrun-ide serve [--port N]           Start the local HTTP API
  rigrun-ide version                    Show version information

Route flags:
  --classification <level>   public, internal, confidential, restricted
  --environment <env>        production, staging, development, local
  --model <id>               Preferred model (cloud ID, alias or on-prem name)
  --onprem                   Force on-prem
  --cloud                    Request cloud (compliance may override)

Classify flags:
  --explain                  Show the matching rule

Global flags:
  --json                     Machine-readable output
  --verbose                  Print routing log lines to stderr
  --config <path>            Config file (default ~/.rigrun-ide/config.toml,
                             or $RIGRUN_IDE_CONFIG)

Examples:
  rigrun-ide route "fix the null check in the payment handler"
  rigrun-ide route --classification restricted --environment production "migrate the users table"
  rigrun-ide config set compliance.strict_mode true

Version: %s
`

// Parse parses argv (without the program name).
func Parse(argv []string) (Command, Args, error) {
	if len(argv) == 0 {
		return CmdHelp, Args{Parser: NewArgParser(nil)}, nil
	}

	var cmd Command
	name := strings.ToLower(argv[0])
	switch name {
	case "route", "r":
		cmd = CmdRoute
	case "classify", "c":
		cmd = CmdClassify
	case "models", "m":
		cmd = CmdModels
	case "config":
		cmd = CmdConfig
	case "audit":
		cmd = CmdAudit
	case "serve":
		cmd = CmdServe
	case "version", "--version", "-v":
		cmd = CmdVersion
	case "help", "--help", "-h":
		cmd = CmdHelp
	default:
		p := NewArgParser(argv, boolFlags...)
		return CmdHelp, Args{Parser: p, JSON: p.BoolFlag("json")},
			NewValidationError("command", argv[0], "unknown command")
	}

	p := NewArgParser(argv[1:], boolFlags...)
	args := Args{
		JSON:       p.BoolFlag("json"),
		ConfigPath: p.Flag("config"),
		Parser:     p,
	}
	if p.BoolFlag("help") || p.BoolFlag("h") {
		cmd = CmdHelp
	}
	return cmd, args, nil
}

// Run executes cmd and returns the process exit code. Errors are printed
// to env.Stderr, or as a JSON envelope to env.Stdout in JSON mode.
func Run(env *Env, cmd Command, args Args) int {
	// Routing log lines are for the daemon; the CLI prints its own output.
	if cmd == CmdServe || (args.Parser != nil && args.Parser.BoolFlag("verbose")) {
		log.SetOutput(env.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	var err error
	switch cmd {
	case CmdRoute:
		err = HandleRoute(env, args)
	case CmdClassify:
		err = HandleClassify(env, args)
	case CmdModels:
		err = HandleModels(env, args)
	case CmdConfig:
		err = HandleConfig(env, args)
	case CmdAudit:
		err = HandleAudit(env, args)
	case CmdServe:
		err = HandleServe(env, args)
	case CmdVersion:
		err = HandleVersion(env, args)
	default:
		HandleHelp(env)
	}

	if err != nil {
		var done reportedError
		if !errors.As(err, &done) {
			out := env.Stderr
			if args.JSON {
				out = env.Stdout
			}
			DisplayError(out, cmd.String(), err, args.JSON)
		}
		return GetExitCode(err)
	}
	return ExitSuccess
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env carries the streams and signal channel a command runs with.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer

	// Interrupt is closed or signalled to stop "serve". Nil means run until
	// the process is killed.
	Interrupt <-chan os.Signal
}

// DefaultEnv uses the process streams.
func DefaultEnv() *Env {
	return &Env{Stdout: os.Stdout, Stderr: os.Stderr}
}

// emit prints data as a JSON envelope, or runs human otherwise.
func (e *Env) emit(args Args, command string, data interface{}, human func(w io.Writer)) error {
	if args.JSON {
		return NewJSONResponse(command, data).Write(e.Stdout)
	}
	human(e.Stdout)
	return nil
}

// =============================================================================
// HELP / VERSION
// =============================================================================

// HandleHelp prints the usage text.
func HandleHelp(env *Env) {
	fmt.Fprintf(env.Stdout, usageText, Version)
}

// HandleVersion prints version information.
func HandleVersion(env *Env, args Args) error {
	data := VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	return env.emit(args, "version", data, func(w io.Writer) {
		fmt.Fprintf(w, "rigrun-ide version %s\n", Version)
		fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
		fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
		fmt.Fprintf(w, "  Go:         %s\n", data.GoVersion)
	})
}
