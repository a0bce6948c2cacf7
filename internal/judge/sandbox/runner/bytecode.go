package runner

import (
	"context"
	"os"
	"time"

	"codejudge/internal/judge/sandbox/job"
	"codejudge/internal/judge/sandbox/result"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

// BytecodeRunner compiles Java into the job's own class directory and runs the JVM against it.
type BytecodeRunner struct {
	base
}

func (r *BytecodeRunner) Compile(ctx context.Context, j job.Job, timeout time.Duration) result.ExecutionResult {
	if j.WorkDir == "" {
		return result.SystemError("bytecode job has no work dir")
	}
	res := r.compile(ctx, j, timeout)
	if res.Status == result.StatusCompilationError {
		// Nothing in the class dir is usable after a failed compile.
		if err := os.RemoveAll(j.WorkDir); err != nil {
			logger.Warn(ctx, "remove work dir after compile failure failed",
				zap.String("job_id", j.ID), zap.Error(err))
		}
	}
	return res
}

// Run leaves the memory cap off: the JVM reserves far more address space than it uses.
func (r *BytecodeRunner) Run(ctx context.Context, j job.Job, limits Limits) result.ExecutionResult {
	return r.run(ctx, j, limits, false)
}
