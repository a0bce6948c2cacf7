package service

import (
	"context"
	"strconv"
	"strings"

	"codejudge/internal/judge/model"
	"codejudge/internal/judge/sandbox/job"
	"codejudge/internal/judge/sandbox/profile"
	"codejudge/internal/judge/sandbox/result"
	"codejudge/internal/judge/sandbox/runner"
	appErr "codejudge/pkg/errors"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

// SubmitRequest judges code against every test case of a problem.
type SubmitRequest struct {
	UserID    string `json:"-"`
	Language  string `json:"language"`
	Code      string `json:"code"`
	ProblemID int64  `json:"problemId"`
}

// Submit compiles once, runs every test case in order and persists the verdict.
// The job id doubles as the submission id.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (model.SubmissionVerdict, error) {
	if strings.TrimSpace(req.Code) == "" || req.Language == "" || req.ProblemID <= 0 {
		return model.SubmissionVerdict{}, appErr.BadRequest("All fields are required")
	}
	if len(req.Code) > s.maxCodeBytes {
		return model.SubmissionVerdict{}, appErr.New(appErr.CodeTooLarge)
	}
	lang, err := s.languages.GetLanguageSpec(ctx, req.Language)
	if err != nil {
		return model.SubmissionVerdict{}, err
	}
	problem, err := s.GetProblem(ctx, req.ProblemID)
	if err != nil {
		return model.SubmissionVerdict{}, err
	}
	cases, err := s.problems.ListTestCases(ctx, problem.ID)
	if err != nil {
		return model.SubmissionVerdict{}, appErr.Wrapf(err, appErr.DatabaseError, "load test cases failed")
	}

	release, err := s.acquireSlot(ctx)
	if err != nil {
		return model.SubmissionVerdict{}, err
	}
	defer release()

	parent, err := s.materializer.Materialize(ctx, lang, req.Code, "")
	if err != nil {
		return model.SubmissionVerdict{}, err
	}
	defer s.executor.Cleanup(ctx, parent)

	status := model.JudgeStatus{
		SubmissionID: parent.ID,
		UserID:       req.UserID,
		ProblemID:    problem.ID,
		Language:     lang.ID,
		State:        model.JudgeStateCompiling,
		Progress:     model.Progress{TotalTests: len(cases)},
		Timestamps:   model.Timestamps{ReceivedAt: s.now().Unix()},
	}
	s.reportStatus(ctx, status)

	compiled := s.executor.Compile(ctx, parent)
	var results []model.TestResult
	switch compiled.Status {
	case result.StatusSuccess:
		status.State = model.JudgeStateJudging
		s.reportStatus(ctx, status)
		results, err = s.judgeCases(ctx, parent, lang, problem, cases, &status)
		if err != nil {
			return model.SubmissionVerdict{}, s.handleFailure(ctx, status, err)
		}
	case result.StatusCompilationError:
		results = compileFailures(cases, compiled)
		status.Progress.DoneTests = len(cases)
	default:
		logger.Error(ctx, "compile failed inside the judge",
			zap.String("submission_id", parent.ID),
			zap.String("details", compiled.Details),
		)
		return model.SubmissionVerdict{}, s.handleFailure(ctx, status, compiled.Err())
	}

	verdict := model.AggregateVerdict(results)
	submission := &model.Submission{
		ID:          parent.ID,
		UserID:      req.UserID,
		ProblemID:   problem.ID,
		Language:    lang.ID,
		Code:        req.Code,
		Verdict:     verdict,
		Results:     results,
		SubmittedAt: s.now(),
	}
	if err := s.persist(ctx, submission); err != nil {
		return model.SubmissionVerdict{}, s.handleFailure(ctx, status, err)
	}

	status.State = model.JudgeStateFinished
	status.Verdict = verdict
	status.Timestamps.FinishedAt = s.now().Unix()
	s.reportStatus(ctx, status)

	logger.Info(ctx, "submission judged",
		zap.String("submission_id", parent.ID),
		zap.Int64("problem_id", problem.ID),
		zap.String("language", lang.ID),
		zap.String("verdict", string(verdict)),
		zap.Int("tests", len(results)),
	)
	return model.SubmissionVerdict{
		Success:      true,
		SubmissionID: parent.ID,
		Verdict:      verdict,
		Results:      results,
	}, nil
}

// judgeCases runs each case in order and keeps going after failures.
func (s *Service) judgeCases(
	ctx context.Context,
	parent job.Job,
	lang profile.LanguageSpec,
	problem model.Problem,
	cases []model.TestCase,
	status *model.JudgeStatus,
) ([]model.TestResult, error) {
	limits := s.limitsFor(problem, lang)
	results := make([]model.TestResult, 0, len(cases))
	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return nil, appErr.Wrap(err, appErr.Timeout)
		}
		testJob, err := s.materializer.MaterializeInput(ctx, parent, strconv.FormatInt(tc.ID, 10), tc.Input)
		if err != nil {
			return nil, err
		}
		res := s.executor.RunTest(ctx, testJob, limits)
		results = append(results, toTestResult(tc, res))

		status.Progress.DoneTests++
		s.reportStatus(ctx, *status)
	}
	return results, nil
}

// limitsFor applies the problem's limits, scaled for slower runtimes, falling back to the global run timeout.
func (s *Service) limitsFor(problem model.Problem, lang profile.LanguageSpec) runner.Limits {
	wall := problem.TimeLimitDuration()
	if wall <= 0 {
		wall = s.runTimeout
	} else {
		wall = runner.ScaleWallTime(wall, lang.TimeMultiplier)
	}
	return runner.Limits{WallTime: wall, MemoryMB: int64(problem.MemoryLimit)}
}

func toTestResult(tc model.TestCase, res result.ExecutionResult) model.TestResult {
	tr := model.TestResult{
		TestCaseID: tc.ID,
		Input:      tc.Input,
		Expected:   tc.Output,
		TimeMs:     res.Elapsed.Milliseconds(),
	}
	if !res.OK() {
		tr.Error = res.Label()
		tr.Details = res.Details
		return tr
	}
	tr.Actual = res.Stdout
	tr.Passed = outputsMatch(res.Stdout, tc.Output)
	return tr
}

// compileFailures fails every case with the compiler diagnostics without running anything.
func compileFailures(cases []model.TestCase, compiled result.ExecutionResult) []model.TestResult {
	results := make([]model.TestResult, 0, len(cases))
	for _, tc := range cases {
		results = append(results, model.TestResult{
			TestCaseID: tc.ID,
			Input:      tc.Input,
			Expected:   tc.Output,
			Error:      compiled.Label(),
			Details:    compiled.Details,
		})
	}
	return results
}

// persist archives the source and writes the submission row. Archive failures only cost the archive copy.
func (s *Service) persist(ctx context.Context, submission *model.Submission) error {
	if s.archive != nil {
		key, err := s.archive.Put(ctx, submission.ID, submission.Language, submission.Code)
		if err != nil {
			logger.Warn(ctx, "archive source failed", zap.String("submission_id", submission.ID), zap.Error(err))
		} else {
			submission.SourceKey = key
		}
	}
	if err := s.submissions.Create(ctx, nil, submission); err != nil {
		return appErr.Wrapf(err, appErr.SubmissionCreateFailed, "persist submission failed")
	}
	return nil
}

// reportStatus stores status; failures are logged and never fail the submission.
func (s *Service) reportStatus(ctx context.Context, status model.JudgeStatus) {
	ctxStatus := ctx
	if s.statusTimeout > 0 {
		var cancel context.CancelFunc
		ctxStatus, cancel = context.WithTimeout(ctx, s.statusTimeout)
		defer cancel()
	}
	if err := s.status.Save(ctxStatus, status); err != nil {
		logger.Warn(ctx, "update judge status failed",
			zap.String("submission_id", status.SubmissionID),
			zap.String("state", string(status.State)),
			zap.Error(err),
		)
	}
}

// handleFailure records the failed state and returns err for the caller.
func (s *Service) handleFailure(ctx context.Context, status model.JudgeStatus, err error) error {
	status.State = model.JudgeStateFailed
	status.ErrorCode = int(appErr.GetCode(err))
	status.ErrorMessage = err.Error()
	status.Timestamps.FinishedAt = s.now().Unix()
	s.reportStatus(ctx, status)
	return err
}
