// Package sandbox drives jobs through compile, run and cleanup.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"codejudge/internal/judge/sandbox/cleanup"
	"codejudge/internal/judge/sandbox/job"
	"codejudge/internal/judge/sandbox/result"
	"codejudge/internal/judge/sandbox/runner"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultCompileTimeout = 10 * time.Second

// Config controls the supervisor.
type Config struct {
	CompileTimeout time.Duration
}

// Supervisor runs jobs and guarantees their files are removed afterwards.
type Supervisor struct {
	runners        *runner.Registry
	cleaner        *cleanup.Coordinator
	observer       Observer
	compileTimeout time.Duration
}

func NewSupervisor(runners *runner.Registry, cleaner *cleanup.Coordinator, cfg Config) *Supervisor {
	if cfg.CompileTimeout <= 0 {
		cfg.CompileTimeout = defaultCompileTimeout
	}
	return &Supervisor{
		runners:        runners,
		cleaner:        cleaner,
		observer:       nopObserver{},
		compileTimeout: cfg.CompileTimeout,
	}
}

// SetObserver installs a transition hook; nil restores the no-op observer.
func (s *Supervisor) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	s.observer = o
}

// Execute compiles and runs j once with a wall limit of timeout, then removes all of its files.
func (s *Supervisor) Execute(ctx context.Context, j job.Job, timeout time.Duration) result.ExecutionResult {
	defer s.Cleanup(ctx, j)

	s.observer.Observe(ctx, transition(j, StateMaterialized, nil))
	res := s.Compile(ctx, j)
	if !res.OK() {
		return res
	}
	return s.runStage(ctx, j, runner.Limits{WallTime: timeout})
}

// Compile runs the compile stage only. Artifacts stay on disk for later RunTest calls.
func (s *Supervisor) Compile(ctx context.Context, j job.Job) result.ExecutionResult {
	run, err := s.runners.For(j.Language)
	if err != nil {
		return result.SystemError(err.Error())
	}
	s.observer.Observe(ctx, transition(j, StateCompiling, nil))
	res := guard(ctx, j, "compile", func() result.ExecutionResult {
		return run.Compile(ctx, j, s.compileTimeout)
	})
	if !res.OK() {
		s.observer.Observe(ctx, transition(j, stateFor(res), &res))
	}
	return res
}

// RunTest runs one per-test job. Its input and output files are removed before returning.
func (s *Supervisor) RunTest(ctx context.Context, testJob job.Job, limits runner.Limits) result.ExecutionResult {
	defer s.cleaner.CleanupIO(ctx, testJob)
	return s.runStage(ctx, testJob, limits)
}

// Cleanup removes every file owned by j.
func (s *Supervisor) Cleanup(ctx context.Context, j job.Job) {
	s.cleaner.Cleanup(ctx, j)
	s.observer.Observe(ctx, transition(j, StateCleaned, nil))
}

func (s *Supervisor) runStage(ctx context.Context, j job.Job, limits runner.Limits) result.ExecutionResult {
	run, err := s.runners.For(j.Language)
	if err != nil {
		return result.SystemError(err.Error())
	}
	s.observer.Observe(ctx, transition(j, StateRunning, nil))
	res := guard(ctx, j, "run", func() result.ExecutionResult {
		return run.Run(ctx, j, limits)
	})
	s.observer.Observe(ctx, transition(j, stateFor(res), &res))
	return res
}

// guard turns a runner panic into a SystemError so deferred cleanup still runs.
func guard(ctx context.Context, j job.Job, stage string, fn func() result.ExecutionResult) (res result.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "runner panicked",
				zap.String("job_id", j.ID),
				zap.String("stage", stage),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			res = result.SystemError(fmt.Sprintf("%s stage panicked: %v", stage, r))
		}
	}()
	return fn()
}
