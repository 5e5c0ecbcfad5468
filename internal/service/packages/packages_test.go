package packages

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/osx-bundler/internal/prompt"
	"github.com/oshokin/osx-bundler/internal/toolchain"
	"github.com/oshokin/osx-bundler/internal/toolchain/toolchaintest"
)

// TestCreateEnvDefaultPackage installs the application package when none are listed.
func TestCreateEnvDefaultPackage(t *testing.T) {
	t.Parallel()

	var (
		base = t.TempDir()
		stub = new(toolchaintest.Stub)
	)

	envDir, err := New(stub, prompt.Yes).CreateEnv(context.Background(), &Request{
		Base:          base,
		Name:          "demo",
		PythonVersion: "3.8",
		ExtraPipArgs:  `--index-url "https://example.com/simple"`,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base, "envs", "demo"), envDir)

	calls := stub.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "CreateEnv", calls[0].Method)
	require.Equal(t, []string{base, "demo", "3.8"}, calls[0].Args)
	require.Equal(t, "RunInEnv", calls[1].Method)
	require.Equal(t, []string{
		base, "demo",
		"pip", "install", "--ignore-installed",
		"--index-url", "https://example.com/simple",
		"demo",
	}, calls[1].Args)
}

// TestCreateEnvExplicitPackages installs exactly the given list.
func TestCreateEnvExplicitPackages(t *testing.T) {
	t.Parallel()

	stub := new(toolchaintest.Stub)

	_, err := New(stub, nil).CreateEnv(context.Background(), &Request{
		Base:     t.TempDir(),
		Name:     "napari",
		Packages: []string{"napari[all]", "pyqt5"},
	})
	require.NoError(t, err)

	calls := stub.Calls()
	require.Equal(t, []string{"napari[all]", "pyqt5"}, calls[1].Args[5:])
}

// TestCreateEnvDeclined reuses the environment without running conda.
func TestCreateEnvDeclined(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	marker := filepath.Join(base, "envs", "demo", "marker")
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0o755))
	require.NoError(t, os.WriteFile(marker, nil, 0o600))

	stub := new(toolchaintest.Stub)

	envDir, err := New(stub, prompt.No).CreateEnv(context.Background(), &Request{Base: base, Name: "demo"})
	require.NoError(t, err)
	require.Equal(t, filepath.Dir(marker), envDir)
	require.Empty(t, stub.Calls())
	require.FileExists(t, marker)
}

// TestCreateEnvOverwrite deletes the previous environment before recreating it.
func TestCreateEnvOverwrite(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	marker := filepath.Join(base, "envs", "demo", "marker")
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0o755))
	require.NoError(t, os.WriteFile(marker, nil, 0o600))

	stub := new(toolchaintest.Stub)

	_, err := New(stub, prompt.Yes).CreateEnv(context.Background(), &Request{Base: base, Name: "demo"})
	require.NoError(t, err)
	require.NoFileExists(t, marker)
	require.True(t, stub.Called("CreateEnv"))
}

// TestCreateEnvFailures logs nonzero conda and pip exits and carries on.
func TestCreateEnvFailures(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	condaFails := &toolchaintest.Stub{
		CreateEnvFunc: func(context.Context, string, string, string) (*toolchain.Result, error) {
			return toolchaintest.Fail("conda create", 1, "PackagesNotFoundError"), nil
		},
	}

	envDir, err := New(condaFails, nil).CreateEnv(context.Background(), &Request{Base: base, Name: "demo"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base, "envs", "demo"), envDir)
	require.True(t, condaFails.Called("RunInEnv"))

	spawnFails := &toolchaintest.Stub{
		CreateEnvFunc: func(context.Context, string, string, string) (*toolchain.Result, error) {
			return nil, errors.New("exec: conda: not found")
		},
	}

	_, err = New(spawnFails, nil).CreateEnv(context.Background(), &Request{Base: base, Name: "demo"})
	require.Error(t, err)

	pipFails := &toolchaintest.Stub{
		RunInEnvFunc: func(context.Context, string, string, ...string) (*toolchain.Result, error) {
			return toolchaintest.Fail("pip install", 1, "No matching distribution"), nil
		},
	}

	envDir, err = New(pipFails, nil).CreateEnv(context.Background(), &Request{Base: t.TempDir(), Name: "demo"})
	require.NoError(t, err)
	require.NotEmpty(t, envDir)
}

// TestCreateEnvBadPipArgs rejects unbalanced quoting before touching anything.
func TestCreateEnvBadPipArgs(t *testing.T) {
	t.Parallel()

	stub := new(toolchaintest.Stub)

	_, err := New(stub, nil).CreateEnv(context.Background(), &Request{
		Base:         t.TempDir(),
		Name:         "demo",
		ExtraPipArgs: `--index-url "unterminated`,
	})
	require.ErrorIs(t, err, errBadPipArgs)
	require.Empty(t, stub.Calls())
}
