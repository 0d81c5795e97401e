// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// route_cmd.go - Route a task and print the decision.
//
// Command: route <task...>
// Aliases: r
//
// Flags:
//   --classification <level>   Per-call data classification
//   --environment <env>        Per-call target environment
//   --model <id>               Preferred model
//   --onprem | --cloud         Force a target (compliance wins over --cloud)
//
// Examples:
//   rigrun-ide route "add a unit test for the parser"
//   rigrun-ide route --cloud "summarize this changelog"
//   rigrun-ide route --json --classification restricted "rename the column"

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/compliance"
	"github.com/jeranaias/rigrun-ide/internal/router"
	"github.com/jeranaias/rigrun-ide/internal/util"
)

// HandleRoute handles "route <task...>".
func HandleRoute(env *Env, args Args) error {
	rc, err := parseRoutingContext(args.Parser)
	if err != nil {
		return err
	}

	a, err := openApp(env, args)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.router.Route(context.Background(), rc)
	if err != nil {
		return NewCommandError("route", "decide", "no model could be selected", err)
	}

	return env.emit(args, "route", res, func(w io.Writer) {
		printRoutingResult(w, rc.Task, res)
	})
}

// parseRoutingContext builds a RoutingContext from route flags.
func parseRoutingContext(p *ArgParser) (router.RoutingContext, error) {
	rc := router.RoutingContext{
		Task:               strings.TrimSpace(JoinPositionalArgs(p, 0)),
		UserPreferredModel: p.Flag("model"),
		ForceOnPrem:        p.BoolFlag("onprem"),
		ForceCloud:         p.BoolFlag("cloud"),
	}
	if rc.Task == "" {
		return rc, ErrMissingArgument("task", `rigrun-ide route "refactor the session cache"`)
	}
	if rc.ForceOnPrem && rc.ForceCloud {
		return rc, NewValidationError("flags", "--onprem --cloud", "choose at most one of --onprem and --cloud")
	}

	if v := p.Flag("classification"); v != "" {
		dc, err := compliance.ParseDataClassification(v)
		if err != nil {
			return rc, &ValidationError{Field: "classification", Value: v, Reason: err.Error()}
		}
		rc.DataClassification = &dc
	}
	if v := p.Flag("environment"); v != "" {
		env, err := compliance.ParseTargetEnvironment(v)
		if err != nil {
			return rc, &ValidationError{Field: "environment", Value: v, Reason: err.Error()}
		}
		rc.TargetEnvironment = &env
	}
	return rc, nil
}

func printRoutingResult(w io.Writer, task string, res router.RoutingResult) {
	target := CloudStyle.Render("CLOUD")
	if res.ModelType == catalog.ModelTypeOnPrem {
		target = OnPremStyle.Render("ON-PREM")
	}

	fmt.Fprintln(w, TitleStyle.Render("Routing Decision"))
	fmt.Fprintln(w, RenderSeparator(50))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Task:"), ValueStyle.Render(util.TruncateWidth(task, 60)))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Category:"), ValueStyle.Render(res.Category.String()))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Target:"), target)

	switch m := res.Model.(type) {
	case catalog.OnPremModel:
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Model:"), ValueStyle.Render(m.Label()))
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Endpoint:"), ValueStyle.Render(m.Endpoint))
	case catalog.CloudModel:
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Model:"), ValueStyle.Render(m.Name+" ("+m.ID+")"))
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Provider:"), ValueStyle.Render(m.Provider))
	}

	required := "no"
	if res.Required {
		required = "yes"
	}
	fmt.Fprintf(w, "%s%s\n", RenderLabel("On-prem required:"), ValueStyle.Render(required))
	if res.Fallback {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Fallback:"), WarningStyle.Render("yes"))
	}

	fmt.Fprintln(w, SectionStyle.Render("Compliance Notes"))
	for _, n := range res.ComplianceNotes {
		fmt.Fprintf(w, "  - %s\n", RenderNote(n))
	}
	if res.AuditLog != nil {
		fmt.Fprintf(w, "\n%s\n", DimStyle.Render("Audit: "+res.AuditLog.ID))
	}
}
