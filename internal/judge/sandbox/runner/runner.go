// Package runner compiles and runs jobs for each language family.
package runner

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"codejudge/internal/judge/sandbox/engine"
	"codejudge/internal/judge/sandbox/job"
	"codejudge/internal/judge/sandbox/profile"
	"codejudge/internal/judge/sandbox/result"
	appErr "codejudge/pkg/errors"

	"github.com/google/shlex"
)

const defaultMaxOutputBytes int64 = 16 << 20

// Limits bounds one run stage.
type Limits struct {
	WallTime time.Duration
	// MemoryMB caps the address space of native programs; zero disables it.
	MemoryMB int64
}

// Runner compiles and executes one job. Every failure is reported as a result variant.
type Runner interface {
	Compile(ctx context.Context, j job.Job, timeout time.Duration) result.ExecutionResult
	Run(ctx context.Context, j job.Job, limits Limits) result.ExecutionResult
}

// Config tunes the shared run contract.
type Config struct {
	// MaxOutputBytes is the largest stdout file read back after a run.
	MaxOutputBytes int64
}

// Registry maps each language kind to its runner.
type Registry struct {
	runners map[profile.Kind]Runner
}

// NewRegistry builds the native, bytecode and interpreted runners on top of eng.
func NewRegistry(eng engine.Engine, cfg Config) *Registry {
	b := newBase(eng, cfg)
	return &Registry{runners: map[profile.Kind]Runner{
		profile.KindNative:      &NativeRunner{base: b},
		profile.KindBytecode:    &BytecodeRunner{base: b},
		profile.KindInterpreted: &InterpretedRunner{base: b},
	}}
}

// For returns the runner for lang.
func (r *Registry) For(lang profile.LanguageSpec) (Runner, error) {
	run, ok := r.runners[lang.Kind]
	if !ok {
		return nil, appErr.Newf(appErr.LanguageNotSupported, "no runner for language kind %q", lang.Kind)
	}
	return run, nil
}

// ScaleWallTime applies a language time multiplier, rounding up to the millisecond.
func ScaleWallTime(limit time.Duration, multiplier float64) time.Duration {
	if limit <= 0 || multiplier <= 0 {
		return limit
	}
	ms := math.Ceil(float64(limit.Milliseconds()) * multiplier)
	return time.Duration(ms) * time.Millisecond
}

// base carries the process execution and classification shared by every runner.
type base struct {
	eng            engine.Engine
	maxOutputBytes int64
}

func newBase(eng engine.Engine, cfg Config) base {
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutputBytes
	}
	return base{eng: eng, maxOutputBytes: cfg.MaxOutputBytes}
}

func (b base) compile(ctx context.Context, j job.Job, timeout time.Duration) result.ExecutionResult {
	cmd, err := buildCommand(j.Language.CompileCmdTpl, j, j.Language.ExtraCompileFlags)
	if err != nil {
		return result.SystemError(err.Error())
	}
	out, err := b.eng.Execute(ctx, engine.Request{
		Cmd:       cmd,
		Dir:       jobDir(j),
		Env:       buildEnv(j.Language),
		WallLimit: timeout,
	})
	if err != nil {
		return result.SystemError(fmt.Sprintf("compiler unavailable: %v", err))
	}
	switch {
	case out.TimedOut:
		return result.CompilationError("compilation timed out")
	case out.Canceled:
		return result.SystemError("compilation canceled")
	case out.Signaled || out.ExitCode != 0:
		return result.CompilationError(diagnostics(out.Stderr, out.Stdout))
	}
	return result.Success("", out.Elapsed)
}

func (b base) run(ctx context.Context, j job.Job, limits Limits, capMemory bool) result.ExecutionResult {
	cmd, err := buildCommand(j.Language.RunCmdTpl, j, nil)
	if err != nil {
		return result.SystemError(err.Error())
	}
	req := engine.Request{
		Cmd:        cmd,
		Dir:        jobDir(j),
		Env:        buildEnv(j.Language),
		StdinPath:  j.InputPath,
		StdoutPath: j.OutputPath,
		WallLimit:  limits.WallTime,
	}
	if capMemory && limits.MemoryMB > 0 {
		req.MemoryLimitBytes = uint64(limits.MemoryMB) << 20
	}
	// One byte of headroom lets readOutput tell a full file from an overflowing one
	// when the runtime ignores SIGXFSZ.
	req.FileSizeLimitBytes = uint64(b.maxOutputBytes) + 1
	out, err := b.eng.Execute(ctx, req)
	if err != nil {
		return result.SystemError(fmt.Sprintf("runtime unavailable: %v", err))
	}
	return b.classify(out, j.OutputPath, limits.WallTime, j.Language.Kind == profile.KindInterpreted)
}

// classify turns a finished process into a result. Order matters: a kill by our own
// wall timer wins over the SIGKILL it produced, and stderr output fails an otherwise clean exit.
// shellExit decodes 128+N exit codes as signals; only interpreter wrappers report deaths that way.
func (b base) classify(out engine.Outcome, outputPath string, limit time.Duration, shellExit bool) result.ExecutionResult {
	if out.TimedOut {
		return result.TimeLimitExceeded(limit)
	}
	if out.Canceled {
		return result.SystemError("execution canceled")
	}
	sig, signaled := out.Signal, out.Signaled
	if !signaled && shellExit {
		sig, signaled = shellSignal(out.ExitCode)
	}
	if signaled && syscall.Signal(sig) == syscall.SIGXFSZ {
		return result.OutputReadError(fmt.Sprintf("output exceeds %d bytes", b.maxOutputBytes))
	}
	if signaled {
		return result.RuntimeError(strings.TrimSpace(out.Stderr), signalTag(sig), out.ExitCode, out.Elapsed)
	}
	if out.ExitCode != 0 {
		return result.RuntimeError(diagnostics(fmt.Sprintf("exited with code %d", out.ExitCode), out.Stderr), "", out.ExitCode, out.Elapsed)
	}
	if strings.TrimSpace(out.Stderr) != "" {
		return result.RuntimeError(strings.TrimSpace(out.Stderr), "", 0, out.Elapsed)
	}

	stdout, err := readOutput(outputPath, b.maxOutputBytes)
	if err != nil {
		return result.OutputReadError(err.Error())
	}
	return result.Success(stdout, out.Elapsed)
}

func readOutput(path string, max int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("read output: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat output: %w", err)
	}
	if info.Size() > max {
		return "", fmt.Errorf("output exceeds %d bytes", max)
	}
	data := make([]byte, info.Size())
	if _, err := f.ReadAt(data, 0); err != nil && info.Size() > 0 {
		return "", fmt.Errorf("read output: %w", err)
	}
	return string(data), nil
}

// buildCommand expands a language template for j and splits it with shell quoting rules.
func buildCommand(tpl string, j job.Job, extraFlags []string) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command template is required")
	}
	replacer := strings.NewReplacer(
		"{src}", shellQuote(j.SourcePath),
		"{bin}", shellQuote(j.BinaryPath),
		"{workDir}", shellQuote(j.WorkDir),
		"{extraFlags}", strings.Join(extraFlags, " "),
	)
	fields, err := shlex.Split(replacer.Replace(tpl))
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "parse command template failed")
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command is empty after expansion")
	}
	return fields, nil
}

func shellQuote(s string) string {
	if s == "" || !strings.ContainsAny(s, " \t\n'\"\\") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func jobDir(j job.Job) string {
	if j.WorkDir != "" {
		return j.WorkDir
	}
	return filepath.Dir(j.SourcePath)
}

// buildEnv gives user programs a minimal environment instead of the service's own.
func buildEnv(lang profile.LanguageSpec) []string {
	path := os.Getenv("PATH")
	if path == "" {
		path = "/usr/local/bin:/usr/bin:/bin"
	}
	env := []string{"PATH=" + path, "HOME=" + os.TempDir(), "LANG=C.UTF-8"}
	return append(env, lang.Env...)
}

func diagnostics(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
