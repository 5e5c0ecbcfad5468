package resources

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/osx-bundler/internal/domain/bundle"
)

// makeEnv builds a small environment tree and returns its path.
func makeEnv(t *testing.T) string {
	t.Helper()

	env := t.TempDir()
	files := []string{
		"bin/python",
		"bin/demo",
		"bin/designer-qt4",
		"bin/linguist-qt4",
		"lib/python3.8/site-packages/demo/__init__.py",
		"lib/python3.8/site-packages/demo/tests/test_demo.py",
		"lib/python3.8/site-packages/other/tests/test_other.py",
		"share/doc/README",
	}

	for _, file := range files {
		path := filepath.Join(env, filepath.FromSlash(file))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(file), 0o644))
	}

	return env
}

func makeBundle(t *testing.T) *domain.Bundle {
	t.Helper()

	b := domain.New(domain.PathFor("demo", t.TempDir()))
	require.NoError(t, os.MkdirAll(b.ResourcesDir(), 0o755))

	return b
}

// TestCopyExcludes covers patterns matching zero, one and many entries, files and folders.
func TestCopyExcludes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		exclude []string
		gone    []string
		kept    []string
	}{
		{
			name:    "no match",
			exclude: []string{"bin/*-qt5*"},
			kept:    []string{"bin/designer-qt4", "bin/linguist-qt4", "share/doc/README"},
		},
		{
			name:    "one file",
			exclude: []string{"bin/designer-qt4"},
			gone:    []string{"bin/designer-qt4"},
			kept:    []string{"bin/linguist-qt4", "bin/python"},
		},
		{
			name:    "many files",
			exclude: []string{"bin/*-qt4*"},
			gone:    []string{"bin/designer-qt4", "bin/linguist-qt4"},
			kept:    []string{"bin/python", "bin/demo"},
		},
		{
			name:    "folder",
			exclude: []string{"share"},
			gone:    []string{"share"},
			kept:    []string{"bin/python", "lib/python3.8/site-packages/demo/__init__.py"},
		},
		{
			name:    "many folders",
			exclude: []string{"lib/**/tests"},
			gone: []string{
				"lib/python3.8/site-packages/demo/tests",
				"lib/python3.8/site-packages/other/tests",
			},
			kept: []string{"lib/python3.8/site-packages/demo/__init__.py"},
		},
	}

	env := makeEnv(t)

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := makeBundle(t)
			require.NoError(t, Copy(context.Background(), env, b, nil, tc.exclude))

			for _, rel := range tc.gone {
				_, err := os.Lstat(filepath.Join(b.ResourcesDir(), filepath.FromSlash(rel)))
				require.ErrorIs(t, err, os.ErrNotExist, rel)
			}

			for _, rel := range tc.kept {
				require.FileExists(t, filepath.Join(b.ResourcesDir(), filepath.FromSlash(rel)))
			}
		})
	}
}

// TestCopyInclude copies only the listed entries and replaces stale ones.
func TestCopyInclude(t *testing.T) {
	t.Parallel()

	var (
		env = makeEnv(t)
		b   = makeBundle(t)
	)

	stale := filepath.Join(b.ResourcesDir(), "bin", "stale")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, nil, 0o600))

	require.NoError(t, Copy(context.Background(), env, b, []string{"bin"}, nil))

	require.FileExists(t, filepath.Join(b.ResourcesDir(), "bin", "python"))
	require.NoFileExists(t, stale)
	require.NoDirExists(t, filepath.Join(b.ResourcesDir(), "lib"))
}

// TestCopyFilterAfterCopy applies excludes to the copied tree, even when they overlap includes.
func TestCopyFilterAfterCopy(t *testing.T) {
	t.Parallel()

	var (
		env = makeEnv(t)
		b   = makeBundle(t)
	)

	require.NoError(t, Copy(context.Background(), env, b, []string{"share"}, []string{"share/doc"}))

	require.DirExists(t, filepath.Join(b.ResourcesDir(), "share"))
	require.NoDirExists(t, filepath.Join(b.ResourcesDir(), "share", "doc"))
}

// TestCopyKeepsSymlinks copies links as links.
func TestCopyKeepsSymlinks(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}

	var (
		env = makeEnv(t)
		b   = makeBundle(t)
	)

	require.NoError(t, os.Symlink("python", filepath.Join(env, "bin", "python3")))
	require.NoError(t, Copy(context.Background(), env, b, nil, nil))

	target, err := os.Readlink(filepath.Join(b.ResourcesDir(), "bin", "python3"))
	require.NoError(t, err)
	require.Equal(t, "python", target)
}

// TestCopyMissingInclude propagates I/O errors.
func TestCopyMissingInclude(t *testing.T) {
	t.Parallel()

	err := Copy(context.Background(), makeEnv(t), makeBundle(t), []string{"missing"}, nil)
	require.Error(t, err)
}

// TestCopyIcon copies an existing icon and ignores a missing one.
func TestCopyIcon(t *testing.T) {
	t.Parallel()

	var (
		ctx  = context.Background()
		b    = makeBundle(t)
		icon = filepath.Join(t.TempDir(), "demo.icns")
	)

	require.NoError(t, os.WriteFile(icon, []byte("icns"), 0o600))

	name, err := CopyIcon(ctx, b, icon)
	require.NoError(t, err)
	require.Equal(t, "demo.icns", name)
	require.FileExists(t, filepath.Join(b.ResourcesDir(), "demo.icns"))

	name, err = CopyIcon(ctx, b, filepath.Join(t.TempDir(), "missing.icns"))
	require.NoError(t, err)
	require.Empty(t, name)

	name, err = CopyIcon(ctx, b, "")
	require.NoError(t, err)
	require.Empty(t, name)
}
