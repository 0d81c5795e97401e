// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/rigrun-ide/internal/audit"
	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitNotFoundError = 7
	// ExitIntegrityError means an audit log failed seal verification.
	ExitIntegrityError = 9
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a failed command action with its cause.
type CommandError struct {
	Command string // e.g. "audit"
	Action  string // e.g. "verify"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError is bad user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError is a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// reportedError marks an error whose output the command already wrote.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// NewCommandError creates a CommandError.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ErrMissingArgument reports a missing positional argument with a usage line.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "argument is required", Example: usage}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError prints err for command: a JSON envelope on w in JSON mode,
// otherwise a styled "Error:" line.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		NewJSONErrorResponse(command, err).Write(w)
		return
	}
	fmt.Fprintf(w, "%s %v\n", ErrorStyle.Render("Error:"), err)

	var ve *ValidationError
	if errors.As(err, &ve) && ve.Example == "" {
		fmt.Fprintf(w, "%s\n", DimStyle.Render("Run 'rigrun-ide help' for usage."))
	}
}

// GetExitCode maps err to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) || errors.Is(err, config.ErrNotFound) {
		return ExitNotFoundError
	}

	var configErrs config.ValidateErrors
	if errors.As(err, &configErrs) || errors.Is(err, catalog.ErrEmptyCatalog) {
		return ExitConfigError
	}

	if errors.Is(err, audit.ErrSealMismatch) {
		return ExitIntegrityError
	}

	return ExitGeneralError
}
