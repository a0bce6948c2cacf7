package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"codejudge/internal/judge/sandbox/job"
	"codejudge/internal/judge/sandbox/profile"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestCleanup_RemovesEverything(t *testing.T) {
	dir := t.TempDir()
	workDir := filepath.Join(dir, "work")
	if err := os.Mkdir(workDir, 0o755); err != nil {
		t.Fatal(err)
	}
	j := job.Job{
		ID:         "job",
		Language:   profile.LanguageSpec{Kind: profile.KindNative},
		SourcePath: filepath.Join(dir, "job.cpp"),
		InputPath:  filepath.Join(dir, "job.in"),
		OutputPath: filepath.Join(dir, "job.txt"),
		BinaryPath: filepath.Join(dir, "job.out"),
		WorkDir:    workDir,
	}
	for _, p := range []string{j.SourcePath, j.InputPath, j.OutputPath, j.BinaryPath, filepath.Join(workDir, "Main.class")} {
		writeFile(t, p)
	}

	NewCoordinator().Cleanup(context.Background(), j)

	for _, p := range []string{j.SourcePath, j.InputPath, j.OutputPath, j.BinaryPath, workDir} {
		if exists(p) {
			t.Fatalf("expected %s to be removed", p)
		}
	}
}

func TestCleanup_ToleratesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	j := job.Job{
		ID:         "ghost",
		SourcePath: filepath.Join(dir, "never-written.py"),
		OutputPath: filepath.Join(dir, "never-written.txt"),
	}
	c := NewCoordinator()
	c.Cleanup(context.Background(), j)
	c.Cleanup(context.Background(), j)
}

func TestCleanupIO_KeepsSourceAndBinary(t *testing.T) {
	dir := t.TempDir()
	j := job.Job{
		ID:         "job",
		TestCaseID: "1",
		SourcePath: filepath.Join(dir, "job.cpp"),
		BinaryPath: filepath.Join(dir, "job.out"),
		InputPath:  filepath.Join(dir, "job_1.in"),
		OutputPath: filepath.Join(dir, "job_1.txt"),
	}
	for _, p := range []string{j.SourcePath, j.BinaryPath, j.InputPath, j.OutputPath} {
		writeFile(t, p)
	}

	NewCoordinator().CleanupIO(context.Background(), j)

	if exists(j.InputPath) || exists(j.OutputPath) {
		t.Fatalf("expected io files removed")
	}
	if !exists(j.SourcePath) || !exists(j.BinaryPath) {
		t.Fatalf("expected source and binary kept for the next test case")
	}
}
