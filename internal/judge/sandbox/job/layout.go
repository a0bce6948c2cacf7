package job

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout is the transient file arena shared by all jobs.
// Jobs never collide because every path embeds the job id.
type Layout struct {
	Root string
}

// NewLayout anchors a relative root at the current directory. Processes run
// with their job directory as cwd, so every path handed to them must be absolute.
func NewLayout(root string) Layout {
	if root == "" {
		return Layout{}
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return Layout{Root: root}
}

func (l Layout) CodesDir() string   { return filepath.Join(l.Root, "codes") }
func (l Layout) InputsDir() string  { return filepath.Join(l.Root, "inputs") }
func (l Layout) OutputsDir() string { return filepath.Join(l.Root, "outputs") }

// Ensure creates the codes, inputs and outputs directories.
func (l Layout) Ensure() error {
	if l.Root == "" {
		return fmt.Errorf("work root is required")
	}
	for _, dir := range []string{l.CodesDir(), l.InputsDir(), l.OutputsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
