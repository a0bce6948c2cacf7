//go:build linux

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"codejudge/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

type linuxEngine struct {
	cfg Config
}

// NewEngine creates a Linux process engine.
func NewEngine(cfg Config) (Engine, error) {
	if cfg.StdoutStderrMaxBytes <= 0 {
		cfg.StdoutStderrMaxBytes = defaultStdoutStderrMaxBytes
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = time.Second
	}
	return &linuxEngine{cfg: cfg}, nil
}

func (e *linuxEngine) Execute(ctx context.Context, req Request) (Outcome, error) {
	if len(req.Cmd) == 0 {
		return Outcome{}, fmt.Errorf("command is required")
	}

	cmd := exec.Command(req.Cmd[0], req.Cmd[1:]...)
	cmd.Dir = req.Dir
	cmd.Env = req.Env
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
	cmd.WaitDelay = e.cfg.KillGrace

	if req.StdinPath != "" {
		stdin, err := os.Open(req.StdinPath)
		if err != nil {
			return Outcome{}, fmt.Errorf("open stdin: %w", err)
		}
		defer stdin.Close()
		cmd.Stdin = stdin
	}

	stdoutBuf := &limitedBuffer{max: e.cfg.StdoutStderrMaxBytes}
	if req.StdoutPath != "" {
		stdout, err := os.OpenFile(req.StdoutPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return Outcome{}, fmt.Errorf("open stdout: %w", err)
		}
		defer stdout.Close()
		cmd.Stdout = stdout
	} else {
		cmd.Stdout = stdoutBuf
	}
	stderrBuf := &limitedBuffer{max: e.cfg.StdoutStderrMaxBytes}
	cmd.Stderr = stderrBuf

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Outcome{}, fmt.Errorf("start %s: %w", req.Cmd[0], err)
	}
	pid := cmd.Process.Pid

	applyLimit(ctx, pid, unix.RLIMIT_AS, req.MemoryLimitBytes, "memory")
	applyLimit(ctx, pid, unix.RLIMIT_FSIZE, req.FileSizeLimitBytes, "file size")

	var timedOut, canceled atomic.Bool
	done := make(chan struct{})
	go func() {
		var wallTimer <-chan time.Time
		if req.WallLimit > 0 {
			timer := time.NewTimer(req.WallLimit)
			defer timer.Stop()
			wallTimer = timer.C
		}
		select {
		case <-ctx.Done():
			canceled.Store(true)
			killProcessGroup(pid)
		case <-wallTimer:
			timedOut.Store(true)
			killProcessGroup(pid)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)
	// Reap anything the program forked into its group.
	killProcessGroup(pid)

	out := Outcome{
		ExitCode: exitCodeFromErr(waitErr, cmd.ProcessState),
		TimedOut: timedOut.Load(),
		Canceled: canceled.Load(),
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Elapsed:  time.Since(start),
	}
	if state := cmd.ProcessState; state != nil {
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			out.Signaled = true
			out.Signal = int(ws.Signal())
			out.SignalName = unix.SignalName(ws.Signal())
		}
	}
	if waitErr != nil && !errors.Is(waitErr, exec.ErrWaitDelay) {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			logger.Warn(ctx, "process wait failed", zap.Strings("cmd", req.Cmd), zap.Error(waitErr))
		}
	}
	return out, nil
}

func exitCodeFromErr(err error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = unix.Kill(-pid, unix.SIGKILL)
}

// SignalName returns the conventional name for signal number sig, e.g. "SIGSEGV".
func SignalName(sig int) string {
	return unix.SignalName(syscall.Signal(sig))
}

// applyLimit sets a hard resource limit on a started process. Zero leaves it unbounded.
func applyLimit(ctx context.Context, pid, resource int, value uint64, name string) {
	if value == 0 {
		return
	}
	limit := &unix.Rlimit{Cur: value, Max: value}
	if err := unix.Prlimit(pid, resource, limit, nil); err != nil {
		logger.Warn(ctx, "apply "+name+" limit failed", zap.Int("pid", pid), zap.Error(err))
	}
}
