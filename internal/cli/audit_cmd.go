// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// audit_cmd.go - Review and verify the routing audit log.
//
// Command: audit [subcommand]
//
// Subcommands:
//   show (default)      Display recent routing decisions
//   export              Write entries as JSON or CSV
//   verify              Verify the HMAC seal chain of a JSONL log
//
// Examples:
//   rigrun-ide audit show --lines 100
//   rigrun-ide audit show --since 24h
//   rigrun-ide audit export --format csv > routing.csv
//   rigrun-ide audit verify
//   rigrun-ide audit verify --file ~/.rigrun-ide/audit/routing-2025-01-03T10-00-00.000.jsonl
//
// Flags:
//   --lines N           Number of entries (default 50)
//   --since <when>      YYYY-MM-DD, RFC3339 or relative (30m, 24h, 7d)
//   --format <fmt>      export format: json (default) or csv
//   --file <path>       verify a specific file instead of the configured log

package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/rigrun-ide/internal/audit"
	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/config"
	"github.com/jeranaias/rigrun-ide/internal/util"
)

const defaultAuditLines = 50

var relativeTimeRegex = regexp.MustCompile(`^(\d+)([smhd])$`)

// AuditShowData is the payload of "audit show --json".
type AuditShowData struct {
	Path    string        `json:"path"`
	Sink    string        `json:"sink"`
	Count   int           `json:"count"`
	Entries []audit.Entry `json:"entries"`
}

// AuditVerifyData is the payload of "audit verify --json".
type AuditVerifyData struct {
	Path   string             `json:"path"`
	Valid  bool               `json:"valid"`
	Report audit.VerifyReport `json:"report"`
	Error  string             `json:"error,omitempty"`
}

// HandleAudit dispatches the audit subcommands.
func HandleAudit(env *Env, args Args) error {
	store, err := openStore(args)
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return err
	}

	switch sub := args.Parser.Subcommand(); sub {
	case "", "show":
		return auditShow(env, args, cfg)
	case "export":
		return auditExport(env, args, cfg)
	case "verify":
		return auditVerify(env, args, cfg)
	default:
		return NewValidationError("subcommand", sub, "expected show, export or verify")
	}
}

// =============================================================================
// AUDIT SHOW
// =============================================================================

func auditShow(env *Env, args Args, cfg *config.Config) error {
	lines, err := args.Parser.FlagInt("lines", defaultAuditLines)
	if err != nil {
		return err
	}
	since, err := parseSince(args.Parser.Flag("since"))
	if err != nil {
		return err
	}

	entries, err := readEntries(cfg.Audit, lines, since)
	if err != nil {
		return err
	}

	data := AuditShowData{
		Path:    cfg.Audit.Path,
		Sink:    cfg.Audit.Sink,
		Count:   len(entries),
		Entries: entries,
	}
	if data.Entries == nil {
		data.Entries = []audit.Entry{}
	}

	return env.emit(args, "audit show", data, func(w io.Writer) {
		fmt.Fprintln(w, TitleStyle.Render("Routing Audit Log"))
		fmt.Fprintln(w, RenderSeparator(80))
		if len(entries) == 0 {
			fmt.Fprintln(w, DimStyle.Render("No audit entries found."))
			if !cfg.Compliance.AuditEnabled {
				fmt.Fprintln(w, "Audit logging is disabled. Enable with:")
				fmt.Fprintln(w, "  rigrun-ide config set compliance.audit_enabled true")
			}
			return
		}
		for _, e := range entries {
			formatAuditEntry(w, e)
		}
		fmt.Fprintf(w, "\nShowing %d entries from: %s\n", len(entries), DimStyle.Render(cfg.Audit.Path))
	})
}

func formatAuditEntry(w io.Writer, e audit.Entry) {
	target := CloudStyle.Render(fmt.Sprintf("%-6s", e.ModelType))
	if e.ModelType == catalog.ModelTypeOnPrem {
		target = OnPremStyle.Render(fmt.Sprintf("%-6s", e.ModelType))
	}
	fmt.Fprintf(w, "%s  %s  %-9s %s",
		DimStyle.Render(e.Timestamp.Local().Format("2006-01-02 15:04:05")),
		target,
		e.TaskCategory,
		e.ModelID)
	if e.Forced != "" {
		fmt.Fprintf(w, "  [forced %s]", e.Forced)
	}
	if e.Fallback {
		fmt.Fprintf(w, "  %s", WarningStyle.Render("[fallback]"))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "           %s\n", DimStyle.Render(util.TruncateWidth(e.Reason, 100)))
}

// readEntries returns up to limit entries at or after since, oldest first.
func readEntries(ac config.AuditConfig, limit int, since time.Time) ([]audit.Entry, error) {
	var entries []audit.Entry

	switch ac.Sink {
	case audit.KindJSONL:
		all, err := audit.ReadJSONL(ac.Path)
		if err != nil {
			return nil, err
		}
		entries = all
	case audit.KindSQLite:
		if _, err := os.Stat(ac.Path); os.IsNotExist(err) {
			return nil, nil
		}
		s, err := audit.NewSQLiteSink(ac.Path)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		recent, err := s.Recent(context.Background(), 0)
		if err != nil {
			return nil, err
		}
		for i := len(recent) - 1; i >= 0; i-- {
			entries = append(entries, recent[i])
		}
	default:
		return nil, &CommandError{
			Command: "audit",
			Action:  "read",
			Reason:  fmt.Sprintf("the %q sink keeps no persistent log", ac.Sink),
		}
	}

	if !since.IsZero() {
		filtered := entries[:0]
		for _, e := range entries {
			if !e.Timestamp.Before(since) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// parseSince accepts absolute dates or relative durations ("24h", "7d").
func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	d, err := parseRelativeTime(s)
	if err != nil {
		return time.Time{}, &ValidationError{
			Field:   "since",
			Value:   s,
			Reason:  "unrecognised time",
			Example: "--since 2025-01-31, --since 24h, --since 7d",
		}
	}
	return time.Now().Add(-d), nil
}

// parseRelativeTime parses "30s", "15m", "24h" or "7d".
func parseRelativeTime(s string) (time.Duration, error) {
	m := relativeTimeRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if len(m) != 3 {
		return 0, fmt.Errorf("invalid relative time format")
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "s":
		return time.Duration(n) * time.Second, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	default:
		return time.Duration(n) * 24 * time.Hour, nil
	}
}

// =============================================================================
// AUDIT EXPORT
// =============================================================================

func auditExport(env *Env, args Args, cfg *config.Config) error {
	since, err := parseSince(args.Parser.Flag("since"))
	if err != nil {
		return err
	}
	lines, err := args.Parser.FlagInt("lines", 0)
	if err != nil {
		return err
	}
	entries, err := readEntries(cfg.Audit, lines, since)
	if err != nil {
		return err
	}

	switch format := strings.ToLower(args.Parser.FlagOrDefault("format", "json")); format {
	case "json":
		if entries == nil {
			entries = []audit.Entry{}
		}
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"export_time": time.Now().UTC().Format(time.RFC3339),
			"entry_count": len(entries),
			"format":      "rigrun-ide-audit-v1",
			"entries":     entries,
		})
	case "csv":
		return exportCSV(env.Stdout, entries)
	default:
		return NewValidationError("format", format, "expected json or csv")
	}
}

func exportCSV(w io.Writer, entries []audit.Entry) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "timestamp", "task_category", "model_type", "model_id",
		"data_classification", "target_environment", "reason", "approved", "forced", "fallback"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			e.ID,
			e.Timestamp.UTC().Format(time.RFC3339Nano),
			e.TaskCategory.String(),
			e.ModelType.String(),
			e.ModelID,
			e.DataClassification.String(),
			e.TargetEnvironment.String(),
			e.Reason,
			strconv.FormatBool(e.Approved),
			e.Forced,
			strconv.FormatBool(e.Fallback),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// =============================================================================
// AUDIT VERIFY
// =============================================================================

func auditVerify(env *Env, args Args, cfg *config.Config) error {
	path := args.Parser.Flag("file")
	if path == "" {
		if cfg.Audit.Sink != audit.KindJSONL {
			return NewCommandError("audit", "verify", "only JSONL logs carry seals", nil)
		}
		path = cfg.Audit.Path
	}
	if cfg.Audit.SealKey == "" {
		return NewCommandError("audit", "verify",
			"no seal key configured (set audit.seal_key or RIGRUN_IDE_SEAL_KEY)", nil)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Resource: "audit log", ID: path}
		}
		return err
	}
	defer f.Close()

	report, verr := audit.Verify(f, audit.DeriveSealKey(cfg.Audit.SealKey))
	data := AuditVerifyData{Path: path, Valid: verr == nil, Report: report}
	if verr != nil {
		data.Error = verr.Error()
	}

	failure := NewCommandError("audit", "verify", "seal chain is broken", verr)
	if args.JSON && verr != nil {
		resp := NewJSONErrorResponse("audit verify", failure)
		resp.Data = data
		if err := resp.Write(env.Stdout); err != nil {
			return err
		}
		return reportedError{failure}
	}

	if err := env.emit(args, "audit verify", data, func(w io.Writer) {
		if verr == nil {
			fmt.Fprintf(w, "%s %d sealed records verified in %s\n", RenderStatus("ok"), report.Sealed, path)
			return
		}
		fmt.Fprintf(w, "%s %s\n", RenderStatus("fail"), verr)
		if report.FirstBadLine > 0 {
			fmt.Fprintf(w, "  First bad record: line %d (%d records checked)\n", report.FirstBadLine, report.Records)
		}
	}); err != nil {
		return err
	}
	if verr != nil {
		return failure
	}
	return nil
}
