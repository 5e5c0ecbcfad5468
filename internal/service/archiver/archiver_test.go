package archiver

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/osx-bundler/internal/toolchain"
	"github.com/oshokin/osx-bundler/internal/toolchain/toolchaintest"
)

// makeApp creates dist/demo.app with a single file and returns its path.
func makeApp(t *testing.T) string {
	t.Helper()

	app := filepath.Join(t.TempDir(), "demo.app")
	require.NoError(t, os.MkdirAll(filepath.Join(app, "Contents", "MacOS"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(app, "Contents", "MacOS", "demo"), []byte("#!/bin/sh"), 0o755))

	return app
}

// TestMake stages the bundle with the Applications link and cleans up on success.
func TestMake(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}

	for _, keepApp := range []bool{true, false} {
		app := makeApp(t)
		dist := filepath.Dir(app)
		staging := filepath.Join(dist, StagingFolder)

		stub := &toolchaintest.Stub{
			CreateImageFunc: func(_ context.Context, src, output string) (*toolchain.Result, error) {
				require.Equal(t, staging, src)
				require.FileExists(t, filepath.Join(src, "demo.app", "Contents", "MacOS", "demo"))

				target, err := os.Readlink(filepath.Join(src, ApplicationsLink))
				require.NoError(t, err)
				require.Equal(t, ApplicationsTarget, target)

				return toolchaintest.Ok("hdiutil"), os.WriteFile(output, nil, 0o600)
			},
		}

		dmg, err := New(stub).Make(context.Background(), app, keepApp)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dist, "demo.dmg"), dmg)
		require.FileExists(t, dmg)
		require.NoDirExists(t, staging)

		if keepApp {
			require.DirExists(t, app)
		} else {
			require.NoDirExists(t, app)
		}
	}
}

// TestMakeFailure leaves the staging folder and returns no path.
func TestMakeFailure(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}

	app := makeApp(t)
	stub := &toolchaintest.Stub{
		CreateImageFunc: func(context.Context, string, string) (*toolchain.Result, error) {
			return toolchaintest.Fail("hdiutil", 1, "hdiutil: create failed - Resource busy"), nil
		},
	}

	dmg, err := New(stub).Make(context.Background(), app, true)
	require.NoError(t, err)
	require.Empty(t, dmg)
	require.DirExists(t, filepath.Join(filepath.Dir(app), StagingFolder, "demo.app"))

	// A second run reuses the existing link.
	_, err = New(stub).Make(context.Background(), app, true)
	require.NoError(t, err)
}

// TestMakeMissingApp reports local I/O errors.
func TestMakeMissingApp(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}

	_, err := New(new(toolchaintest.Stub)).Make(context.Background(), filepath.Join(t.TempDir(), "missing.app"), true)
	require.Error(t, err)
}
