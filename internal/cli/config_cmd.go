// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - View and modify configuration.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display the effective configuration
//   get <key>           Print one value
//   set <key> <value>   Change one value in the config file
//   reset               Write the default configuration
//   path                Show the configuration file path
//
// Examples:
//   rigrun-ide config set compliance.data_classification confidential
//   rigrun-ide config set compliance.target_environment production
//   rigrun-ide config set onprem.code_models "qwen2.5-coder:7b,codestral"
//   rigrun-ide config get audit.path
//
// Keys use dot notation; run "config show" for the full list. Environment
// overrides (RIGRUN_IDE_*) apply to show and get but are never written by set.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/rigrun-ide/internal/config"
)

// ConfigValue is one key in "config show/get --json".
type ConfigValue struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// HandleConfig dispatches the config subcommands.
func HandleConfig(env *Env, args Args) error {
	store, err := openStore(args)
	if err != nil {
		return err
	}

	switch sub := args.Parser.Subcommand(); sub {
	case "", "show":
		return configShow(env, args, store)
	case "get":
		return configGet(env, args, store)
	case "set":
		return configSet(env, args, store)
	case "reset":
		return configReset(env, args, store)
	case "path":
		return env.emit(args, "config path", map[string]string{"path": store.Path()}, func(w io.Writer) {
			fmt.Fprintln(w, store.Path())
		})
	default:
		return NewValidationError("subcommand", sub, "expected show, get, set, reset or path")
	}
}

func configShow(env *Env, args Args, store *config.Store) error {
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	safe := cfg.Redacted()

	data := struct {
		Path   string         `json:"path"`
		Config *config.Config `json:"config"`
	}{store.Path(), safe}

	return env.emit(args, "config show", data, func(w io.Writer) {
		fmt.Fprintln(w, TitleStyle.Render("Configuration"))
		fmt.Fprintf(w, "%s\n", DimStyle.Render(store.Path()))

		section := ""
		for _, key := range config.GetAllKeys() {
			prefix, _, _ := strings.Cut(key, ".")
			if prefix != section {
				section = prefix
				fmt.Fprintln(w, SectionStyle.Render("["+section+"]"))
			}
			v, _ := safe.Get(key)
			fmt.Fprintf(w, "  %s%s\n", RenderLabel(key, 34), ValueStyle.Render(formatValue(v)))
			if key == "onprem.enabled" {
				for _, ep := range safe.OnPrem.Endpoints {
					fmt.Fprintf(w, "  %s%s\n", RenderLabel("onprem.endpoint", 34), ValueStyle.Render(ep.Name+" = "+ep.URL))
				}
			}
		}
	})
}

func configGet(env *Env, args Args, store *config.Store) error {
	key := args.Parser.Positional(1)
	if key == "" {
		return ErrMissingArgument("key", "rigrun-ide config get compliance.strict_mode")
	}
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	v, err := cfg.Redacted().Get(key)
	if err != nil {
		return &NotFoundError{Resource: "config key", ID: key}
	}
	return env.emit(args, "config get", ConfigValue{Key: key, Value: v}, func(w io.Writer) {
		fmt.Fprintln(w, formatValue(v))
	})
}

func configSet(env *Env, args Args, store *config.Store) error {
	key := args.Parser.Positional(1)
	if key == "" || args.Parser.PositionalCount() < 3 {
		return ErrMissingArgument("key and value", "rigrun-ide config set compliance.strict_mode true")
	}
	value := JoinPositionalArgs(args.Parser, 2)

	if err := store.SetKey(key, value); err != nil {
		return NewCommandError("config", "set", key, err)
	}

	shown := value
	if config.IsSecretKey(key) {
		shown = "[REDACTED]"
	}
	return env.emit(args, "config set", ConfigValue{Key: key, Value: shown}, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s = %s\n", SuccessStyle.Render("Set"), key, shown)
	})
}

func configReset(env *Env, args Args, store *config.Store) error {
	if err := config.Save(config.Default(), store.Path()); err != nil {
		return NewCommandError("config", "reset", "could not write defaults", err)
	}
	return env.emit(args, "config reset", map[string]string{"path": store.Path()}, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("Reset"), store.Path())
	})
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ", ")
	case string:
		if x == "" {
			return "(not set)"
		}
		return x
	default:
		return fmt.Sprint(x)
	}
}
