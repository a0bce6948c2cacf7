package sandbox

import (
	"context"

	"codejudge/internal/judge/sandbox/job"
	"codejudge/internal/judge/sandbox/result"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

// State is a job's position in its lifecycle.
type State string

const (
	StateMaterialized  State = "Materialized"
	StateCompiling     State = "Compiling"
	StateRunning       State = "Running"
	StateSucceeded     State = "Succeeded"
	StateCompileFailed State = "CompileFailed"
	StateRuntimeFailed State = "RuntimeFailed"
	StateTimedOut      State = "TimedOut"
	StateCleaned       State = "Cleaned"
)

// stateFor maps a finished stage to its terminal state.
func stateFor(res result.ExecutionResult) State {
	switch res.Status {
	case result.StatusSuccess:
		return StateSucceeded
	case result.StatusCompilationError:
		return StateCompileFailed
	case result.StatusTimeLimitExceeded:
		return StateTimedOut
	default:
		return StateRuntimeFailed
	}
}

// Transition is one state change of a job. Result is set for terminal states.
type Transition struct {
	JobID      string
	TestCaseID string
	Language   string
	State      State
	Result     *result.ExecutionResult
}

// Observer receives job state transitions. Implementations must not block.
type Observer interface {
	Observe(ctx context.Context, t Transition)
}

type nopObserver struct{}

func (nopObserver) Observe(context.Context, Transition) {}

// LogObserver writes transitions to the service log.
type LogObserver struct{}

func (LogObserver) Observe(ctx context.Context, t Transition) {
	fields := []zap.Field{
		zap.String("job_id", t.JobID),
		zap.String("language", t.Language),
		zap.String("state", string(t.State)),
	}
	if t.TestCaseID != "" {
		fields = append(fields, zap.String("test_case_id", t.TestCaseID))
	}
	if t.Result != nil {
		fields = append(fields,
			zap.String("result", t.Result.Label()),
			zap.Duration("elapsed", t.Result.Elapsed),
		)
	}
	logger.Debug(ctx, "job state changed", fields...)
}

func transition(j job.Job, state State, res *result.ExecutionResult) Transition {
	return Transition{
		JobID:      j.ID,
		TestCaseID: j.TestCaseID,
		Language:   j.Language.ID,
		State:      state,
		Result:     res,
	}
}
