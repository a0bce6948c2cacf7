package result

import (
	"testing"
	"time"

	appErr "codejudge/pkg/errors"
)

func TestExecutionResult_LabelAndCode(t *testing.T) {
	cases := []struct {
		name      string
		res       ExecutionResult
		wantLabel string
		wantCode  appErr.ErrorCode
	}{
		{"success", Success("2\n", time.Millisecond), "Success", appErr.Success},
		{"compile", CompilationError("expected ';'"), "Compilation Error", appErr.CompilationError},
		{"runtime with signal", RuntimeError("", "segmentation fault", 139, 0), "Runtime Error: segmentation fault", appErr.RuntimeError},
		{"runtime without signal", RuntimeError("exited with code 3", "", 3, 0), "Runtime Error", appErr.RuntimeError},
		{"timeout", TimeLimitExceeded(time.Second), "Time Limit Exceeded", appErr.TimeLimitExceeded},
		{"output", OutputReadError("permission denied"), "Output Read Error", appErr.OutputReadError},
		{"system", SystemError("g++ not found"), "System Error", appErr.JudgeSystemError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.res.Label(); got != tc.wantLabel {
				t.Fatalf("Label() = %q, want %q", got, tc.wantLabel)
			}
			if got := tc.res.Code(); got != tc.wantCode {
				t.Fatalf("Code() = %d, want %d", got, tc.wantCode)
			}
		})
	}
}

func TestExecutionResult_Message(t *testing.T) {
	res := CompilationError("main.cpp:1: error: expected ';'\n")
	want := "Compilation Error\nmain.cpp:1: error: expected ';'"
	if got := res.Message(); got != want {
		t.Fatalf("Message() = %q, want %q", got, want)
	}
	if got := TimeLimitExceeded(time.Second).Message(); got != "Time Limit Exceeded" {
		t.Fatalf("Message() = %q", got)
	}
}

func TestExecutionResult_Err(t *testing.T) {
	if err := Success("", 0).Err(); err != nil {
		t.Fatalf("success should not produce an error, got %v", err)
	}
	err := RuntimeError("boom", "aborted", 134, 0).Err()
	if !appErr.Is(err, appErr.RuntimeError) {
		t.Fatalf("expected runtime error code, got %v", err)
	}
	e := appErr.GetError(err)
	if e.Details["signal"] != "aborted" || e.Details["diagnostics"] != "boom" {
		t.Fatalf("unexpected details %v", e.Details)
	}
	if e.Code.HTTPStatus() != 400 {
		t.Fatalf("runtime error should be a client fault")
	}
	if appErr.GetCode(SystemError("x").Err()).HTTPStatus() != 500 {
		t.Fatalf("system error should be a server fault")
	}
}
