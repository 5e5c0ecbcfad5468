package toolchain

import (
	"context"
	"strings"
)

// Result describes a finished external command.
type Result struct {
	// Command is the command line that was executed.
	Command string
	// ExitCode is the process exit status.
	ExitCode int
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
}

// Success reports whether the command exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// ErrorOutput returns trimmed stderr, falling back to stdout when stderr is empty.
func (r *Result) ErrorOutput() string {
	if r == nil {
		return ""
	}

	if text := strings.TrimSpace(string(r.Stderr)); text != "" {
		return text
	}

	return strings.TrimSpace(string(r.Stdout))
}

// Installer runs the runtime installer non-interactively.
type Installer interface {
	Install(ctx context.Context, installer, prefix string) (*Result, error)
}

// EnvManager creates sub-environments and runs commands inside them.
type EnvManager interface {
	// CreateEnv creates <base>/envs/<name> pinned to the interpreter version.
	CreateEnv(ctx context.Context, base, name, pythonVersion string) (*Result, error)
	// RunInEnv runs args with the environment of <base>/envs/<env>, or of the
	// base installation when env is empty.
	RunInEnv(ctx context.Context, base, env string, args ...string) (*Result, error)
}

// Signer applies a code signature.
type Signer interface {
	Sign(ctx context.Context, target, identity string) (*Result, error)
}

// Imager builds a disk image from a folder.
type Imager interface {
	CreateImage(ctx context.Context, srcFolder, output string) (*Result, error)
}

// Toolchain bundles every external capability used by the pipeline.
type Toolchain interface {
	Installer
	EnvManager
	Signer
	Imager
}
