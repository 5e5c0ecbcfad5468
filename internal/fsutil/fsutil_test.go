package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCopyTreeKeepsSymlinks verifies links are recreated, not resolved.
func TestCopyTreeKeepsSymlinks(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "env")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "bin"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "lib", "python3.8"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "bin", "python3.8"), []byte("py"), 0o755))
	require.NoError(t, os.Symlink("python3.8", filepath.Join(src, "bin", "python")))
	require.NoError(t, os.Symlink("../missing", filepath.Join(src, "lib", "dangling")))

	dst := filepath.Join(t.TempDir(), "Resources")
	require.NoError(t, CopyTree(src, dst))

	link, err := os.Readlink(filepath.Join(dst, "bin", "python"))
	require.NoError(t, err)
	require.Equal(t, "python3.8", link)

	link, err = os.Readlink(filepath.Join(dst, "lib", "dangling"))
	require.NoError(t, err)
	require.Equal(t, "../missing", link)

	info, err := os.Stat(filepath.Join(dst, "bin", "python3.8"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	require.DirExists(t, filepath.Join(dst, "lib", "python3.8"))
}

// TestCopyFile copies contents and creates parent folders.
func TestCopyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "icon.icns")
	require.NoError(t, os.WriteFile(src, []byte("icns"), 0o640))

	dst := filepath.Join(dir, "a", "b", "icon.icns")
	require.NoError(t, Copy(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "icns", string(data))
}

// TestExists distinguishes present, absent and dangling entries.
func TestExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(dir, "link")))

	ok, err := Exists(dir)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Exists(filepath.Join(dir, "link"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Exists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

// TestMove renames directories.
func TestMove(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "demo.app")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "Contents"), 0o755))

	dst := filepath.Join(dir, "dmg", "demo.app")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, Move(src, dst))

	require.NoDirExists(t, src)
	require.DirExists(t, filepath.Join(dst, "Contents"))
}

// TestExpandPath resolves relative paths to absolute ones.
func TestExpandPath(t *testing.T) {
	t.Parallel()

	got, err := ExpandPath("./build")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(got))
	require.Equal(t, "build", filepath.Base(got))
}
