package runner

import (
	"context"
	"time"

	"codejudge/internal/judge/sandbox/job"
	"codejudge/internal/judge/sandbox/result"
)

// NativeRunner compiles C and C++ to a binary and executes it directly.
// The binary is left for the cleanup coordinator so one compile serves every test case.
type NativeRunner struct {
	base
}

func (r *NativeRunner) Compile(ctx context.Context, j job.Job, timeout time.Duration) result.ExecutionResult {
	if j.BinaryPath == "" {
		return result.SystemError("native job has no binary path")
	}
	return r.compile(ctx, j, timeout)
}

func (r *NativeRunner) Run(ctx context.Context, j job.Job, limits Limits) result.ExecutionResult {
	return r.run(ctx, j, limits, true)
}
