// Package cleanup removes the transient files a job leaves behind.
package cleanup

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"codejudge/internal/judge/sandbox/job"
	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
)

// Coordinator deletes job files. It never fails: missing files are ignored
// and any other error is logged.
type Coordinator struct{}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Cleanup removes the source, input, output, binary and work dir of j.
func (c *Coordinator) Cleanup(ctx context.Context, j job.Job) {
	c.CleanupIO(ctx, j)
	removeFile(ctx, j, "source", j.SourcePath)
	removeFile(ctx, j, "binary", j.BinaryPath)
	if j.WorkDir != "" {
		if err := os.RemoveAll(j.WorkDir); err != nil {
			logger.Warn(ctx, "remove work dir failed",
				zap.String("job_id", j.ID),
				zap.String("path", j.WorkDir),
				zap.Error(err),
			)
		}
	}
}

// CleanupIO removes only the input and output files of j.
func (c *Coordinator) CleanupIO(ctx context.Context, j job.Job) {
	removeFile(ctx, j, "input", j.InputPath)
	removeFile(ctx, j, "output", j.OutputPath)
}

func removeFile(ctx context.Context, j job.Job, kind, path string) {
	if path == "" {
		return
	}
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return
	}
	logger.Warn(ctx, "remove job file failed",
		zap.String("job_id", j.ID),
		zap.String("kind", kind),
		zap.String("path", path),
		zap.Error(err),
	)
}
