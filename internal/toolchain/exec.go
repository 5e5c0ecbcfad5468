package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/oshokin/osx-bundler/internal/logger"
)

// Exec runs the real external programs.
type Exec struct {
	// stdout and stderr receive a live copy of command output when set.
	stdout io.Writer
	stderr io.Writer
	// environ supplies the base process environment.
	environ func() []string
}

// Option configures an Exec.
type Option func(*Exec)

// WithOutput streams command output to the given writers in addition to capturing it.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Exec) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithEnviron replaces the source of the base process environment.
func WithEnviron(environ func() []string) Option {
	return func(e *Exec) {
		if environ != nil {
			e.environ = environ
		}
	}
}

// New creates an Exec toolchain.
func New(opts ...Option) *Exec {
	e := &Exec{
		environ: os.Environ,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

var _ Toolchain = (*Exec)(nil)

// Install runs `bash <installer> -b -p <prefix>`.
func (e *Exec) Install(ctx context.Context, installer, prefix string) (*Result, error) {
	return e.run(ctx, e.environ(), "bash", installer, "-b", "-p", prefix)
}

// CreateEnv runs `conda create -n <name> -c conda-forge -y python=<version>` in the base environment.
func (e *Exec) CreateEnv(ctx context.Context, base, name, pythonVersion string) (*Result, error) {
	return e.RunInEnv(ctx, base, "", "conda", "create", "-n", name, "-c", "conda-forge", "-y", "python="+pythonVersion)
}

// RunInEnv runs args[0] resolved against the environment's bin folders.
func (e *Exec) RunInEnv(ctx context.Context, base, env string, args ...string) (*Result, error) {
	if len(args) == 0 {
		return nil, errNoCommand
	}

	environ := Environment(base, env, e.environ())
	name := resolve(args[0], binDirs(base, env)...)

	return e.run(ctx, environ, name, args[1:]...)
}

// Sign runs `codesign --force --deep -s <identity> <target>`.
func (e *Exec) Sign(ctx context.Context, target, identity string) (*Result, error) {
	return e.run(ctx, e.environ(), "codesign", "--force", "--deep", "-s", identity, target)
}

// CreateImage runs `hdiutil create <output> -ov -srcfolder <srcFolder>`.
func (e *Exec) CreateImage(ctx context.Context, srcFolder, output string) (*Result, error) {
	return e.run(ctx, e.environ(), "hdiutil", "create", output, "-ov", "-srcfolder", srcFolder)
}

// errNoCommand is returned when RunInEnv gets no arguments.
var errNoCommand = errors.New("no command to run")

func (e *Exec) run(ctx context.Context, environ []string, name string, args ...string) (*Result, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = environ
	cmd.Stdout = tee(&stdout, e.stdout)
	cmd.Stderr = tee(&stderr, e.stderr)

	logger.DebugKV(ctx, "Running command", "command", cmd.String())

	err := cmd.Run()

	result := &Result{
		Command: cmd.String(),
		Stdout:  stdout.Bytes(),
		Stderr:  stderr.Bytes(),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()

		logger.DebugKV(ctx, "Command failed", "command", result.Command, "exit_code", result.ExitCode)

		return result, nil
	}

	if err != nil {
		return result, fmt.Errorf("run %s: %w", name, err)
	}

	return result, nil
}

func tee(capture *bytes.Buffer, live io.Writer) io.Writer {
	if live == nil {
		return capture
	}

	return io.MultiWriter(capture, live)
}
