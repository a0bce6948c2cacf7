package errors_test

import (
	"errors"
	"fmt"
	"testing"

	. "codejudge/pkg/errors"
)

func TestErrorCode_Message(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{Success, "Success"},
		{CompilationError, "Compilation Error"},
		{RuntimeError, "Runtime Error"},
		{TimeLimitExceeded, "Time Limit Exceeded"},
		{OutputReadError, "Output Read Error"},
		{ProblemNotFound, "Problem not found"},
		{ErrorCode(99999), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.Message(); got != tt.want {
				t.Errorf("Message() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code       ErrorCode
		wantStatus int
	}{
		{Success, 200},
		{InvalidParams, 400},
		{LanguageNotSupported, 400},
		{CompilationError, 400},
		{RuntimeError, 400},
		{TimeLimitExceeded, 400},
		{Unauthorized, 401},
		{TokenExpired, 401},
		{ProblemNotFound, 404},
		{SubmissionNotFound, 404},
		{JudgeQueueFull, 429},
		{OutputReadError, 500},
		{FileSystemError, 500},
		{JudgeSystemError, 500},
		{InternalServerError, 500},
	}

	for _, tt := range tests {
		t.Run(tt.code.Message(), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.wantStatus {
				t.Errorf("HTTPStatus() = %v, want %v", got, tt.wantStatus)
			}
		})
	}
}

func TestNew(t *testing.T) {
	err := New(ProblemNotFound)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if err.Code != ProblemNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ProblemNotFound)
	}
	if err.Error() != ProblemNotFound.Message() {
		t.Errorf("Error() = %v, want %v", err.Error(), ProblemNotFound.Message())
	}
	if err.Stack == "" {
		t.Error("expected stack to be captured")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(LanguageNotSupported, "unsupported language: %s", "brainfuck")
	want := "unsupported language: brainfuck"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("connection refused")
	err := Wrap(originalErr, DatabaseError)

	if err.Code != DatabaseError {
		t.Errorf("Code = %v, want %v", err.Code, DatabaseError)
	}
	if !errors.Is(err, originalErr) {
		t.Error("wrapped error should unwrap to the original")
	}
	if Wrap(nil, DatabaseError) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrap_ExistingErrorKeepsMessage(t *testing.T) {
	base := New(CacheError).WithMessage("redis down")
	err := Wrap(base, ServiceUnavailable)
	if err.Code != ServiceUnavailable {
		t.Errorf("Code = %v, want %v", err.Code, ServiceUnavailable)
	}
	if err.Error() != "redis down" {
		t.Errorf("Error() = %v, want redis down", err.Error())
	}
}

func TestGetCodeAndIs_FollowChain(t *testing.T) {
	inner := New(SubmissionNotFound)
	outer := fmt.Errorf("load submission: %w", inner)

	if got := GetCode(outer); got != SubmissionNotFound {
		t.Errorf("GetCode() = %v, want %v", got, SubmissionNotFound)
	}
	if !Is(outer, SubmissionNotFound) {
		t.Error("Is() should find the code through fmt wrapping")
	}
	if Is(outer, ProblemNotFound) {
		t.Error("Is() matched the wrong code")
	}
	if got := GetCode(errors.New("plain")); got != InternalServerError {
		t.Errorf("GetCode(plain) = %v, want %v", got, InternalServerError)
	}
	if got := GetCode(nil); got != Success {
		t.Errorf("GetCode(nil) = %v, want %v", got, Success)
	}
}

func TestGetError_WrapsForeignErrors(t *testing.T) {
	got := GetError(errors.New("boom"))
	if got.Code != InternalServerError {
		t.Errorf("Code = %v, want %v", got.Code, InternalServerError)
	}
	if got.Error() != "boom" {
		t.Errorf("Error() = %v, want boom", got.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError("language", "unsupported")
	if err.Code != ValidationFailed {
		t.Errorf("Code = %v, want %v", err.Code, ValidationFailed)
	}
	if err.Details["field"] != "language" || err.Details["reason"] != "unsupported" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}
