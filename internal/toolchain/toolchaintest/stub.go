// Package toolchaintest provides a scriptable toolchain for tests.
package toolchaintest

import (
	"context"
	"strings"
	"sync"

	"github.com/oshokin/osx-bundler/internal/toolchain"
)

// Call records one invocation of the stub.
type Call struct {
	Method string
	Args   []string
}

// Stub implements toolchain.Toolchain with overridable behaviour.
// Methods without an override succeed without touching the filesystem.
type Stub struct {
	InstallFunc     func(ctx context.Context, installer, prefix string) (*toolchain.Result, error)
	CreateEnvFunc   func(ctx context.Context, base, name, pythonVersion string) (*toolchain.Result, error)
	RunInEnvFunc    func(ctx context.Context, base, env string, args ...string) (*toolchain.Result, error)
	SignFunc        func(ctx context.Context, target, identity string) (*toolchain.Result, error)
	CreateImageFunc func(ctx context.Context, srcFolder, output string) (*toolchain.Result, error)

	mu    sync.Mutex
	calls []Call
}

var _ toolchain.Toolchain = (*Stub)(nil)

// Calls returns the recorded invocations in order.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Call(nil), s.calls...)
}

// Called reports whether method was invoked at least once.
func (s *Stub) Called(method string) bool {
	for _, call := range s.Calls() {
		if call.Method == method {
			return true
		}
	}

	return false
}

// Install implements toolchain.Installer.
func (s *Stub) Install(ctx context.Context, installer, prefix string) (*toolchain.Result, error) {
	s.record("Install", installer, prefix)

	if s.InstallFunc != nil {
		return s.InstallFunc(ctx, installer, prefix)
	}

	return Ok("bash " + installer), nil
}

// CreateEnv implements toolchain.EnvManager.
func (s *Stub) CreateEnv(ctx context.Context, base, name, pythonVersion string) (*toolchain.Result, error) {
	s.record("CreateEnv", base, name, pythonVersion)

	if s.CreateEnvFunc != nil {
		return s.CreateEnvFunc(ctx, base, name, pythonVersion)
	}

	return Ok("conda create -n " + name), nil
}

// RunInEnv implements toolchain.EnvManager.
func (s *Stub) RunInEnv(ctx context.Context, base, env string, args ...string) (*toolchain.Result, error) {
	s.record("RunInEnv", append([]string{base, env}, args...)...)

	if s.RunInEnvFunc != nil {
		return s.RunInEnvFunc(ctx, base, env, args...)
	}

	return Ok(strings.Join(args, " ")), nil
}

// Sign implements toolchain.Signer.
func (s *Stub) Sign(ctx context.Context, target, identity string) (*toolchain.Result, error) {
	s.record("Sign", target, identity)

	if s.SignFunc != nil {
		return s.SignFunc(ctx, target, identity)
	}

	return Ok("codesign " + target), nil
}

// CreateImage implements toolchain.Imager.
func (s *Stub) CreateImage(ctx context.Context, srcFolder, output string) (*toolchain.Result, error) {
	s.record("CreateImage", srcFolder, output)

	if s.CreateImageFunc != nil {
		return s.CreateImageFunc(ctx, srcFolder, output)
	}

	return Ok("hdiutil create " + output), nil
}

// Ok returns a successful result for command.
func Ok(command string) *toolchain.Result {
	return &toolchain.Result{Command: command}
}

// Fail returns a failed result with the given exit code and stderr.
func Fail(command string, code int, stderr string) *toolchain.Result {
	return &toolchain.Result{Command: command, ExitCode: code, Stderr: []byte(stderr)}
}

func (s *Stub) record(method string, args ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Method: method, Args: args})
}
