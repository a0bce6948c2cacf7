// Package job turns source text and stdin into uniquely named files on disk.
package job

import (
	"context"
	"os"
	"path/filepath"

	"codejudge/internal/judge/sandbox/profile"
	appErr "codejudge/pkg/errors"

	"github.com/google/uuid"
)

// Job is one execution unit. All paths derive from ID, and from TestCaseID for per-test jobs.
type Job struct {
	ID         string
	TestCaseID string
	Language   profile.LanguageSpec

	SourcePath string
	// InputPath is empty when the program gets no stdin.
	InputPath  string
	OutputPath string
	// BinaryPath is set for native languages only.
	BinaryPath string
	// WorkDir is set for bytecode languages only.
	WorkDir string
}

// Scope is the file name stem shared by the job's input and output files.
func (j Job) Scope() string {
	if j.TestCaseID == "" {
		return j.ID
	}
	return j.ID + "_" + j.TestCaseID
}

// Materializer writes jobs into a Layout.
type Materializer struct {
	layout Layout
	newID  func() string
}

func NewMaterializer(layout Layout) *Materializer {
	return &Materializer{layout: layout, newID: uuid.NewString}
}

// Materialize creates a job with a fresh id, writing the source and, when non-empty, stdin.
func (m *Materializer) Materialize(ctx context.Context, lang profile.LanguageSpec, sourceCode, stdinText string) (Job, error) {
	id := m.newID()
	j := Job{
		ID:         id,
		Language:   lang,
		OutputPath: filepath.Join(m.layout.OutputsDir(), id+".txt"),
	}

	switch lang.Kind {
	case profile.KindBytecode:
		j.WorkDir = filepath.Join(m.layout.CodesDir(), id)
		j.SourcePath = filepath.Join(j.WorkDir, lang.SourceFile)
	case profile.KindNative:
		j.SourcePath = filepath.Join(m.layout.CodesDir(), id+"."+lang.Extension)
		j.BinaryPath = filepath.Join(m.layout.OutputsDir(), id+".out")
	default:
		j.SourcePath = filepath.Join(m.layout.CodesDir(), id+"."+lang.Extension)
	}

	if j.WorkDir != "" {
		if err := os.Mkdir(j.WorkDir, 0o755); err != nil {
			return Job{}, appErr.Wrapf(err, appErr.FileSystemError, "create work dir failed")
		}
	}
	if err := os.WriteFile(j.SourcePath, []byte(sourceCode), 0o644); err != nil {
		m.discard(j)
		return Job{}, appErr.Wrapf(err, appErr.FileSystemError, "write source failed")
	}
	if stdinText != "" {
		j.InputPath = filepath.Join(m.layout.InputsDir(), j.Scope()+".txt")
		if err := os.WriteFile(j.InputPath, []byte(stdinText), 0o644); err != nil {
			m.discard(j)
			return Job{}, appErr.Wrapf(err, appErr.FileSystemError, "write input failed")
		}
	}
	return j, nil
}

// MaterializeInput derives the per-test job for testCaseID.
// It shares the parent's source, binary and work dir but owns its input and output files.
func (m *Materializer) MaterializeInput(ctx context.Context, parent Job, testCaseID, stdinText string) (Job, error) {
	j := parent
	j.TestCaseID = testCaseID
	j.InputPath = ""
	j.OutputPath = filepath.Join(m.layout.OutputsDir(), j.Scope()+".txt")
	if stdinText != "" {
		j.InputPath = filepath.Join(m.layout.InputsDir(), j.Scope()+".txt")
		if err := os.WriteFile(j.InputPath, []byte(stdinText), 0o644); err != nil {
			removeQuietly(j.InputPath)
			return Job{}, appErr.Wrapf(err, appErr.FileSystemError, "write test input failed")
		}
	}
	return j, nil
}

// discard removes whatever a failed Materialize managed to write.
func (m *Materializer) discard(j Job) {
	removeQuietly(j.SourcePath)
	removeQuietly(j.InputPath)
	if j.WorkDir != "" {
		_ = os.RemoveAll(j.WorkDir)
	}
}

func removeQuietly(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
