// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// classify_cmd.go - Show how a task is categorised and what the policy says.
//
// Command: classify <task...>
// Aliases: c
//
// Flags:
//   --explain   Show the matching rule and keyword
//
// Examples:
//   rigrun-ide classify "write integration tests for the billing API"
//   rigrun-ide classify --explain --json "compare vector databases"

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/rigrun-ide/internal/compliance"
	"github.com/jeranaias/rigrun-ide/internal/router"
)

// ClassifyData is the payload of "classify --json".
type ClassifyData struct {
	Task      string                  `json:"task"`
	Category  compliance.TaskCategory `json:"category"`
	Sensitive bool                    `json:"sensitive"`
	Decision  compliance.Decision     `json:"decision"`
	Config    compliance.Config       `json:"config"`

	// Set with --explain. RuleIndex is -1 for the general fallback.
	RuleIndex *int   `json:"rule_index,omitempty"`
	Matched   string `json:"matched,omitempty"`
}

// HandleClassify handles "classify <task...>". It evaluates the policy with
// the current config but never routes and never writes an audit entry.
func HandleClassify(env *Env, args Args) error {
	task := strings.TrimSpace(JoinPositionalArgs(args.Parser, 0))
	if task == "" {
		return ErrMissingArgument("task", `rigrun-ide classify "fix the login bug"`)
	}

	store, err := openStore(args)
	if err != nil {
		return err
	}
	cfg := store.Get()

	classifier := compliance.DefaultClassifier()
	category, idx := classifier.Match(task)

	data := ClassifyData{
		Task:      task,
		Category:  category,
		Sensitive: category.IsSensitive(),
		Config:    cfg,
	}
	if cfg.Enabled {
		data.Decision = compliance.EvaluatePolicy(classifier, task, cfg)
	} else {
		data.Decision = compliance.Decision{Category: category, Reason: router.NoteComplianceDisabled}
	}

	if args.Parser.BoolFlag("explain") {
		data.RuleIndex = &idx
		if idx >= 0 {
			data.Matched = strings.ToLower(classifier.Rules()[idx].Pattern.FindString(task))
		}
	}

	return env.emit(args, "classify", data, func(w io.Writer) {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Category:"), ValueStyle.Render(category.String()))
		sensitive := "no"
		if data.Sensitive {
			sensitive = "yes"
		}
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Sensitive:"), ValueStyle.Render(sensitive))

		verdict := CloudStyle.Render("cloud allowed")
		if data.Decision.Required {
			verdict = OnPremStyle.Render("on-prem required")
		}
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Policy:"), verdict)
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Reason:"), ValueStyle.Render(data.Decision.Reason))

		if data.RuleIndex != nil {
			fmt.Fprintln(w, SectionStyle.Render("Explanation"))
			if idx < 0 {
				fmt.Fprintln(w, DimStyle.Render("  No rule matched; general tasks fall through to the default."))
				return
			}
			fmt.Fprintf(w, "  Rule %d of %d (%s) matched %q\n",
				idx+1, len(classifier.Rules()), category, data.Matched)
			fmt.Fprintf(w, "  %s\n", DimStyle.Render("Rules are checked in order; the first match wins."))
		}
	})
}
