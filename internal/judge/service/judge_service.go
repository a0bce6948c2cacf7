// Package service implements ad-hoc runs and the submission judge loop.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codejudge/internal/judge/model"
	"codejudge/internal/judge/repository"
	"codejudge/internal/judge/sandbox/config"
	"codejudge/internal/judge/sandbox/job"
	"codejudge/internal/judge/sandbox/profile"
	"codejudge/internal/judge/sandbox/result"
	"codejudge/internal/judge/sandbox/runner"
	appErr "codejudge/pkg/errors"
)

const (
	defaultRunTimeout     = 5 * time.Second
	defaultAcquireTimeout = 2 * time.Second
	defaultMaxCodeBytes   = 64 << 10
	defaultMaxInputBytes  = 1 << 20
	defaultRunLanguage    = "cpp"
)

// Executor supervises job execution.
type Executor interface {
	Execute(ctx context.Context, j job.Job, timeout time.Duration) result.ExecutionResult
	Compile(ctx context.Context, j job.Job) result.ExecutionResult
	RunTest(ctx context.Context, testJob job.Job, limits runner.Limits) result.ExecutionResult
	Cleanup(ctx context.Context, j job.Job)
}

// StatusStore keeps live judge status.
type StatusStore interface {
	Save(ctx context.Context, status model.JudgeStatus) error
	Get(ctx context.Context, submissionID string) (model.JudgeStatus, error)
}

// SourceArchiver stores submitted sources outside the database.
type SourceArchiver interface {
	Put(ctx context.Context, submissionID, languageID, code string) (string, error)
}

// Service handles run and submit requests.
type Service struct {
	executor     Executor
	materializer *job.Materializer
	languages    config.LanguageRepository
	problems     repository.ProblemRepository
	submissions  repository.SubmissionRepository
	status       StatusStore
	archive      SourceArchiver

	runTimeout     time.Duration
	acquireTimeout time.Duration
	statusTimeout  time.Duration
	maxCodeBytes   int
	maxInputBytes  int
	sem            chan struct{}
	now            func() time.Time
}

// Config holds service dependencies and settings.
type Config struct {
	Executor     Executor
	Materializer *job.Materializer
	Languages    config.LanguageRepository
	Problems     repository.ProblemRepository
	Submissions  repository.SubmissionRepository
	Status       StatusStore
	// Archive is optional; without it sources live only in the submissions table.
	Archive SourceArchiver

	RunTimeout     time.Duration
	AcquireTimeout time.Duration
	StatusTimeout  time.Duration
	MaxCodeBytes   int
	MaxInputBytes  int
	WorkerPoolSize int
}

// NewService creates a judge service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.Materializer == nil {
		return nil, fmt.Errorf("materializer is required")
	}
	if cfg.Languages == nil {
		return nil, fmt.Errorf("language repository is required")
	}
	if cfg.Problems == nil {
		return nil, fmt.Errorf("problem repository is required")
	}
	if cfg.Submissions == nil {
		return nil, fmt.Errorf("submission repository is required")
	}
	if cfg.Status == nil {
		return nil, fmt.Errorf("status store is required")
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = defaultRunTimeout
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}
	if cfg.MaxCodeBytes <= 0 {
		cfg.MaxCodeBytes = defaultMaxCodeBytes
	}
	if cfg.MaxInputBytes <= 0 {
		cfg.MaxInputBytes = defaultMaxInputBytes
	}
	poolSize := cfg.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	return &Service{
		executor:       cfg.Executor,
		materializer:   cfg.Materializer,
		languages:      cfg.Languages,
		problems:       cfg.Problems,
		submissions:    cfg.Submissions,
		status:         cfg.Status,
		archive:        cfg.Archive,
		runTimeout:     cfg.RunTimeout,
		acquireTimeout: cfg.AcquireTimeout,
		statusTimeout:  cfg.StatusTimeout,
		maxCodeBytes:   cfg.MaxCodeBytes,
		maxInputBytes:  cfg.MaxInputBytes,
		sem:            make(chan struct{}, poolSize),
		now:            time.Now,
	}, nil
}

// Languages lists the supported languages.
func (s *Service) Languages(ctx context.Context) []profile.LanguageSpec {
	return s.languages.ListLanguages(ctx)
}

// GetProblem returns problem metadata.
func (s *Service) GetProblem(ctx context.Context, problemID int64) (model.Problem, error) {
	if problemID <= 0 {
		return model.Problem{}, appErr.ValidationError("problem_id", "must be positive")
	}
	problem, err := s.problems.GetProblem(ctx, problemID)
	if err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return model.Problem{}, appErr.New(appErr.ProblemNotFound)
		}
		return model.Problem{}, appErr.Wrapf(err, appErr.DatabaseError, "load problem failed")
	}
	return problem, nil
}

// GetStatus returns the live judge status of a submission.
func (s *Service) GetStatus(ctx context.Context, submissionID string) (model.JudgeStatus, error) {
	return s.status.Get(ctx, submissionID)
}

// GetSubmission returns a persisted submission.
func (s *Service) GetSubmission(ctx context.Context, submissionID string) (*model.Submission, error) {
	if submissionID == "" {
		return nil, appErr.ValidationError("submission_id", "required")
	}
	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return nil, appErr.New(appErr.SubmissionNotFound)
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "load submission failed")
	}
	return sub, nil
}

// acquireSlot waits for a worker slot and returns its release func.
func (s *Service) acquireSlot(ctx context.Context) (func(), error) {
	timer := time.NewTimer(s.acquireTimeout)
	defer timer.Stop()
	select {
	case s.sem <- struct{}{}:
		return func() { <-s.sem }, nil
	case <-ctx.Done():
		return nil, appErr.Wrap(ctx.Err(), appErr.Timeout)
	case <-timer.C:
		return nil, appErr.New(appErr.JudgeQueueFull)
	}
}
