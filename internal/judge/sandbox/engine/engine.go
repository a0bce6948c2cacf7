// Package engine runs one OS process under a wall-clock limit.
package engine

import (
	"context"
	"time"
)

const defaultStdoutStderrMaxBytes int64 = 64 * 1024

// Config controls engine behavior.
type Config struct {
	// StdoutStderrMaxBytes caps in-memory capture of stdout and stderr.
	StdoutStderrMaxBytes int64
	// KillGrace bounds how long Wait lingers on open pipes after a kill.
	KillGrace time.Duration
}

// Request describes one process execution.
type Request struct {
	Cmd []string
	Dir string
	Env []string

	// StdinPath is redirected to stdin; empty means no stdin.
	StdinPath string
	// StdoutPath receives stdout; empty captures stdout in memory.
	StdoutPath string

	// WallLimit is the wall-clock budget; zero means unbounded.
	WallLimit time.Duration
	// MemoryLimitBytes caps the address space of the process; zero means unbounded.
	MemoryLimitBytes uint64
	// FileSizeLimitBytes caps every file the process writes, stdout included; zero means unbounded.
	FileSizeLimitBytes uint64
}

// Outcome is the raw process result before classification.
type Outcome struct {
	ExitCode   int
	Signaled   bool
	Signal     int
	SignalName string
	// TimedOut is set only when the engine itself killed the process for exceeding WallLimit.
	TimedOut bool
	// Canceled is set when the caller's context ended the process.
	Canceled bool
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

// Engine executes processes. An error means the process could not be started at all.
type Engine interface {
	Execute(ctx context.Context, req Request) (Outcome, error)
}

// limitedBuffer keeps the first max bytes written and silently drops the rest.
type limitedBuffer struct {
	buf []byte
	max int64
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	room := b.max - int64(len(b.buf))
	if room > 0 {
		if int64(len(p)) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return string(b.buf)
}
