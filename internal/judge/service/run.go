package service

import (
	"context"
	"strings"

	"codejudge/internal/judge/sandbox/result"
	appErr "codejudge/pkg/errors"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

// RunRequest is an ad-hoc execution with custom stdin.
type RunRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Input    string `json:"input"`
}

// RunResult is returned for every executed run, successful or not.
type RunResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Run compiles and executes code once against Input under the global time limit.
// Request errors return a zero RunResult; execution failures return both the result and its error.
func (s *Service) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if strings.TrimSpace(req.Code) == "" {
		return RunResult{}, appErr.BadRequest("Code is required")
	}
	if req.Language == "" {
		req.Language = defaultRunLanguage
	}
	if len(req.Code) > s.maxCodeBytes {
		return RunResult{}, appErr.New(appErr.CodeTooLarge)
	}
	if len(req.Input) > s.maxInputBytes {
		return RunResult{}, appErr.New(appErr.CustomInputTooLarge)
	}
	lang, err := s.languages.GetLanguageSpec(ctx, req.Language)
	if err != nil {
		return RunResult{}, err
	}

	release, err := s.acquireSlot(ctx)
	if err != nil {
		return RunResult{}, err
	}
	defer release()

	j, err := s.materializer.Materialize(ctx, lang, req.Code, req.Input)
	if err != nil {
		return RunResult{}, err
	}
	res := s.executor.Execute(ctx, j, s.runTimeout)
	logger.Info(ctx, "run finished",
		zap.String("job_id", j.ID),
		zap.String("language", lang.ID),
		zap.String("result", res.Label()),
		zap.Duration("elapsed", res.Elapsed),
	)
	if res.Status == result.StatusSystemError {
		logger.Error(ctx, "run failed inside the judge", zap.String("job_id", j.ID), zap.String("details", res.Details))
	}
	if !res.OK() {
		return RunResult{Success: false, Error: res.Message()}, res.Err()
	}
	return RunResult{Success: true, Output: trimTrailing(res.Stdout)}, nil
}
