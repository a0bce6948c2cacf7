// Package result defines the closed set of execution outcomes.
package result

import (
	"fmt"
	"strings"
	"time"

	appErr "codejudge/pkg/errors"
)

// Status tags which variant an ExecutionResult holds.
type Status string

const (
	StatusSuccess           Status = "Success"
	StatusCompilationError  Status = "Compilation Error"
	StatusRuntimeError      Status = "Runtime Error"
	StatusTimeLimitExceeded Status = "Time Limit Exceeded"
	StatusOutputReadError   Status = "Output Read Error"
	// StatusSystemError means the judge itself failed, never the submitted code.
	StatusSystemError Status = "System Error"
)

// ExecutionResult is the outcome of one compile or run stage.
// Stdout is only meaningful when Status is StatusSuccess.
type ExecutionResult struct {
	Status   Status
	Stdout   string
	Details  string
	Signal   string
	ExitCode int
	Elapsed  time.Duration
}

func Success(stdout string, elapsed time.Duration) ExecutionResult {
	return ExecutionResult{Status: StatusSuccess, Stdout: stdout, Elapsed: elapsed}
}

func CompilationError(details string) ExecutionResult {
	return ExecutionResult{Status: StatusCompilationError, Details: details}
}

// RuntimeError records a crash. signal is the human tag, e.g. "segmentation fault", or "".
func RuntimeError(details, signal string, exitCode int, elapsed time.Duration) ExecutionResult {
	return ExecutionResult{Status: StatusRuntimeError, Details: details, Signal: signal, ExitCode: exitCode, Elapsed: elapsed}
}

func TimeLimitExceeded(limit time.Duration) ExecutionResult {
	return ExecutionResult{Status: StatusTimeLimitExceeded, Elapsed: limit}
}

func OutputReadError(details string) ExecutionResult {
	return ExecutionResult{Status: StatusOutputReadError, Details: details}
}

func SystemError(details string) ExecutionResult {
	return ExecutionResult{Status: StatusSystemError, Details: details}
}

// OK reports whether the stage succeeded.
func (r ExecutionResult) OK() bool {
	return r.Status == StatusSuccess
}

// Label is the classification shown to users, e.g. "Runtime Error: segmentation fault".
func (r ExecutionResult) Label() string {
	if r.Status == StatusRuntimeError && r.Signal != "" {
		return fmt.Sprintf("%s: %s", r.Status, r.Signal)
	}
	return string(r.Status)
}

// Message is the label followed by captured diagnostics, if any.
func (r ExecutionResult) Message() string {
	details := strings.TrimSpace(r.Details)
	if details == "" {
		return r.Label()
	}
	return r.Label() + "\n" + details
}

// Code maps the variant onto the service error code space.
func (r ExecutionResult) Code() appErr.ErrorCode {
	switch r.Status {
	case StatusSuccess:
		return appErr.Success
	case StatusCompilationError:
		return appErr.CompilationError
	case StatusRuntimeError:
		return appErr.RuntimeError
	case StatusTimeLimitExceeded:
		return appErr.TimeLimitExceeded
	case StatusOutputReadError:
		return appErr.OutputReadError
	default:
		return appErr.JudgeSystemError
	}
}

// Err converts a failed result into an *appErr.Error; it returns nil on success.
func (r ExecutionResult) Err() error {
	if r.OK() {
		return nil
	}
	e := appErr.New(r.Code()).WithMessage(r.Label())
	if r.Details != "" {
		e.WithDetail("diagnostics", r.Details)
	}
	if r.Signal != "" {
		e.WithDetail("signal", r.Signal)
	}
	return e
}
