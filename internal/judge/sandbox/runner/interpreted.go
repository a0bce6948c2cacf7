package runner

import (
	"context"
	"time"

	"codejudge/internal/judge/sandbox/job"
	"codejudge/internal/judge/sandbox/result"
)

// InterpretedRunner executes the source file with its interpreter. There is no compile stage.
type InterpretedRunner struct {
	base
}

func (r *InterpretedRunner) Compile(ctx context.Context, j job.Job, timeout time.Duration) result.ExecutionResult {
	return result.Success("", 0)
}

func (r *InterpretedRunner) Run(ctx context.Context, j job.Job, limits Limits) result.ExecutionResult {
	return r.run(ctx, j, limits, false)
}
