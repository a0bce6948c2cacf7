package job

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codejudge/internal/judge/sandbox/profile"
	appErr "codejudge/pkg/errors"
)

func languages() map[string]profile.LanguageSpec {
	out := map[string]profile.LanguageSpec{}
	for _, l := range profile.DefaultLanguages() {
		out[l.ID] = l
	}
	return out
}

func newMaterializer(t *testing.T) (*Materializer, Layout) {
	t.Helper()
	layout := NewLayout(t.TempDir())
	if err := layout.Ensure(); err != nil {
		t.Fatalf("ensure layout: %v", err)
	}
	return NewMaterializer(layout), layout
}

func TestMaterialize_PathsPerKind(t *testing.T) {
	m, layout := newMaterializer(t)
	langs := languages()
	ctx := context.Background()

	native, err := m.Materialize(ctx, langs["cpp"], "int main(){}", "")
	if err != nil {
		t.Fatalf("materialize cpp: %v", err)
	}
	if native.SourcePath != filepath.Join(layout.CodesDir(), native.ID+".cpp") {
		t.Fatalf("unexpected source path %s", native.SourcePath)
	}
	if native.BinaryPath != filepath.Join(layout.OutputsDir(), native.ID+".out") {
		t.Fatalf("unexpected binary path %s", native.BinaryPath)
	}
	if native.InputPath != "" {
		t.Fatalf("expected no input file for empty stdin, got %s", native.InputPath)
	}
	if native.OutputPath != filepath.Join(layout.OutputsDir(), native.ID+".txt") {
		t.Fatalf("unexpected output path %s", native.OutputPath)
	}

	java, err := m.Materialize(ctx, langs["java"], "class Main{}", "1 2")
	if err != nil {
		t.Fatalf("materialize java: %v", err)
	}
	if java.WorkDir != filepath.Join(layout.CodesDir(), java.ID) {
		t.Fatalf("unexpected work dir %s", java.WorkDir)
	}
	if filepath.Base(java.SourcePath) != "Main.java" || filepath.Dir(java.SourcePath) != java.WorkDir {
		t.Fatalf("java source must be Main.java inside the work dir, got %s", java.SourcePath)
	}
	if java.BinaryPath != "" {
		t.Fatalf("bytecode job must not have a binary path")
	}
	data, err := os.ReadFile(java.InputPath)
	if err != nil || string(data) != "1 2" {
		t.Fatalf("expected stdin written, got %q err=%v", data, err)
	}

	py, err := m.Materialize(ctx, langs["python"], "", "")
	if err != nil {
		t.Fatalf("materialize python with empty source: %v", err)
	}
	if !strings.HasSuffix(py.SourcePath, py.ID+".py") {
		t.Fatalf("unexpected python source %s", py.SourcePath)
	}
	if info, err := os.Stat(py.SourcePath); err != nil || info.Size() != 0 {
		t.Fatalf("expected empty source file, err=%v", err)
	}
}

func TestMaterialize_UniqueIDs(t *testing.T) {
	m, _ := newMaterializer(t)
	lang := languages()["python"]
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		j, err := m.Materialize(context.Background(), lang, "print(1)", "x")
		if err != nil {
			t.Fatalf("materialize: %v", err)
		}
		if seen[j.ID] {
			t.Fatalf("duplicate job id %s", j.ID)
		}
		seen[j.ID] = true
	}
}

func TestMaterializeInput_SharesSourceOwnsIO(t *testing.T) {
	m, layout := newMaterializer(t)
	parent, err := m.Materialize(context.Background(), languages()["cpp"], "int main(){}", "")
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	testJob, err := m.MaterializeInput(context.Background(), parent, "7", "5\n")
	if err != nil {
		t.Fatalf("materialize input: %v", err)
	}
	if testJob.SourcePath != parent.SourcePath || testJob.BinaryPath != parent.BinaryPath {
		t.Fatalf("test job must share source and binary")
	}
	wantIn := filepath.Join(layout.InputsDir(), parent.ID+"_7.txt")
	wantOut := filepath.Join(layout.OutputsDir(), parent.ID+"_7.txt")
	if testJob.InputPath != wantIn || testJob.OutputPath != wantOut {
		t.Fatalf("unexpected io paths %s %s", testJob.InputPath, testJob.OutputPath)
	}
	if testJob.Scope() != parent.ID+"_7" {
		t.Fatalf("unexpected scope %s", testJob.Scope())
	}

	empty, err := m.MaterializeInput(context.Background(), parent, "8", "")
	if err != nil {
		t.Fatalf("materialize empty input: %v", err)
	}
	if empty.InputPath != "" {
		t.Fatalf("expected no input path for empty stdin")
	}
}

func TestNewLayout_RelativeRootIsAnchored(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)

	layout := NewLayout("work")
	if !filepath.IsAbs(layout.Root) {
		t.Fatalf("expected absolute root, got %s", layout.Root)
	}
	if err := layout.Ensure(); err != nil {
		t.Fatalf("ensure layout: %v", err)
	}
	j, err := NewMaterializer(layout).Materialize(context.Background(), languages()["cpp"], "int main(){}", "1 2\n")
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	for _, p := range []string{j.SourcePath, j.BinaryPath, j.InputPath, j.OutputPath} {
		if !filepath.IsAbs(p) {
			t.Fatalf("expected absolute job path, got %s", p)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "work", "codes", j.ID+".cpp")); err != nil {
		t.Fatalf("source not written under cwd/work: %v", err)
	}

	if NewLayout("").Ensure() == nil {
		t.Fatal("expected error for empty root")
	}
}

func TestMaterialize_FileSystemError(t *testing.T) {
	// Layout directories are never created, so every write fails.
	m := NewMaterializer(NewLayout(filepath.Join(t.TempDir(), "missing")))
	_, err := m.Materialize(context.Background(), languages()["python"], "print(1)", "")
	if !appErr.Is(err, appErr.FileSystemError) {
		t.Fatalf("expected FileSystemError, got %v", err)
	}
	_, err = m.Materialize(context.Background(), languages()["java"], "class Main{}", "")
	if !appErr.Is(err, appErr.FileSystemError) {
		t.Fatalf("expected FileSystemError for java, got %v", err)
	}
}
