package usecase

import (
	"errors"
	"fmt"
	"strings"
)

// Standard errors returned by use cases and adapters.
var (
	ErrToolNotFound = errors.New("tool not found")

	// ErrConfiguration marks startup problems: duplicate schemas, missing
	// handlers or missing environment. The process must not start serving.
	ErrConfiguration = errors.New("invalid server configuration")
)

// Validation failure reasons.
const (
	ReasonMissing = "missing"
	ReasonType    = "type"
	ReasonEnum    = "enum"
	ReasonRange   = "range"
)

// ValidationError reports the first parameter that failed validation.
type ValidationError struct {
	Param  string
	Reason string
	// Value is the offending value as supplied; nil for ReasonMissing.
	Value  any
	Detail string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonMissing:
		return fmt.Sprintf("missing required parameter '%s'", e.Param)
	case ReasonEnum:
		return fmt.Sprintf("invalid value %v for parameter '%s': %s", e.Value, e.Param, e.Detail)
	default:
		return fmt.Sprintf("invalid parameter '%s': %s", e.Param, e.Detail)
	}
}

// ExecutionError reports a command that ran but did not succeed, or could not
// be started at all (ExitCode -1).
type ExecutionError struct {
	Program  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return fmt.Sprintf("%s failed: %s", e.Program, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Program, e.Err)
	}
	return fmt.Sprintf("%s failed with exit code %d", e.Program, e.ExitCode)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
