package runner

import (
	"syscall"

	"codejudge/internal/judge/sandbox/engine"
)

// signalTag names a fatal signal the way users expect to read it.
func signalTag(sig int) string {
	switch syscall.Signal(sig) {
	case syscall.SIGSEGV:
		return "segmentation fault"
	case syscall.SIGFPE:
		return "floating point exception / divide by zero"
	case syscall.SIGABRT:
		return "aborted"
	case syscall.SIGKILL:
		return "killed"
	case syscall.SIGBUS:
		return "bus error"
	}
	return engine.SignalName(sig)
}

// shellSignal decodes the 128+N exit status a shell reports when its child dies by a signal.
// Native programs report real signals, so their exit codes are never decoded.
func shellSignal(exitCode int) (int, bool) {
	if exitCode <= 128 || exitCode > 128+64 {
		return 0, false
	}
	return exitCode - 128, true
}
