// Package profile defines the language specs used by the sandbox.
package profile

import (
	"fmt"
	"strings"
)

// Kind is the execution family of a language.
type Kind string

const (
	// KindNative compiles to a standalone binary (C, C++).
	KindNative Kind = "native"
	// KindBytecode compiles into a per-job class directory (Java).
	KindBytecode Kind = "bytecode"
	// KindInterpreted runs the source file directly (Python).
	KindInterpreted Kind = "interpreted"
)

// LanguageSpec defines how to compile and run a language.
// Command templates are split with shell quoting rules and may reference
// {src}, {bin}, {workDir} and {extraFlags}.
type LanguageSpec struct {
	ID                string   `yaml:"id" json:"id"`
	Name              string   `yaml:"name" json:"name"`
	Kind              Kind     `yaml:"kind" json:"kind"`
	Extension         string   `yaml:"extension" json:"extension"`
	SourceFile        string   `yaml:"sourceFile" json:"-"`
	CompileCmdTpl     string   `yaml:"compileCmd" json:"-"`
	RunCmdTpl         string   `yaml:"runCmd" json:"-"`
	ExtraCompileFlags []string `yaml:"extraCompileFlags" json:"-"`
	Env               []string `yaml:"env" json:"-"`
	TimeMultiplier    float64  `yaml:"timeMultiplier" json:"timeMultiplier,omitempty"`
}

// CompileEnabled reports whether the language has a compile stage.
func (l LanguageSpec) CompileEnabled() bool {
	return l.Kind != KindInterpreted && l.CompileCmdTpl != ""
}

// Validate checks the fields every runner relies on.
func (l LanguageSpec) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("language id is required")
	}
	switch l.Kind {
	case KindNative, KindBytecode, KindInterpreted:
	default:
		return fmt.Errorf("language %s: unknown kind %q", l.ID, l.Kind)
	}
	if strings.TrimSpace(l.RunCmdTpl) == "" {
		return fmt.Errorf("language %s: run command is required", l.ID)
	}
	if l.Kind != KindInterpreted && strings.TrimSpace(l.CompileCmdTpl) == "" {
		return fmt.Errorf("language %s: compile command is required", l.ID)
	}
	if l.Kind == KindBytecode && l.SourceFile == "" {
		return fmt.Errorf("language %s: source file name is required", l.ID)
	}
	if l.Kind != KindBytecode && l.Extension == "" {
		return fmt.Errorf("language %s: extension is required", l.ID)
	}
	return nil
}

// DefaultLanguages returns the built-in C, C++, Java and Python specs.
func DefaultLanguages() []LanguageSpec {
	return []LanguageSpec{
		{
			ID:            "c",
			Name:          "C",
			Kind:          KindNative,
			Extension:     "c",
			CompileCmdTpl: "gcc {extraFlags} {src} -o {bin}",
			RunCmdTpl:     "{bin}",
		},
		{
			ID:            "cpp",
			Name:          "C++",
			Kind:          KindNative,
			Extension:     "cpp",
			CompileCmdTpl: "g++ {extraFlags} {src} -o {bin}",
			RunCmdTpl:     "{bin}",
		},
		{
			ID:             "java",
			Name:           "Java",
			Kind:           KindBytecode,
			Extension:      "java",
			SourceFile:     "Main.java",
			CompileCmdTpl:  "javac -d {workDir} {src}",
			RunCmdTpl:      "java -cp {workDir} Main",
			TimeMultiplier: 2,
		},
		{
			ID:             "python",
			Name:           "Python 3",
			Kind:           KindInterpreted,
			Extension:      "py",
			RunCmdTpl:      "python3 {src}",
			TimeMultiplier: 2,
		},
	}
}
