package metadata

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/osx-bundler/internal/domain/bundle"
)

func makeBundle(t *testing.T, name string) *domain.Bundle {
	t.Helper()

	b := domain.New(domain.PathFor(name, t.TempDir()))
	require.NoError(t, os.MkdirAll(b.ResourcesDir(), 0o755))

	return b
}

func readManifest(t *testing.T, b *domain.Bundle) string {
	t.Helper()

	contents, err := os.ReadFile(b.ManifestPath())
	require.NoError(t, err)

	return string(contents)
}

// TestWriteDefaults renders Foo with empty author and icon and version 1.2.3.
func TestWriteDefaults(t *testing.T) {
	t.Parallel()

	b := makeBundle(t, "Foo")
	require.NoError(t, Write(context.Background(), b, Info{Version: "1.2.3"}))

	manifest := readManifest(t, b)
	require.GreaterOrEqual(t, strings.Count(manifest, "Foo"), 2)
	require.Contains(t, manifest, "<string>org.Foo.Foo</string>")
	require.Contains(t, manifest, "1.2.3")
	require.Contains(t, manifest, "Foo contributors")
	require.Contains(t, manifest, strconv.Itoa(time.Now().Year()))
	require.NotContains(t, manifest, "{{")
}

// TestWriteOverrides uses explicit values and a template from disk.
func TestWriteOverrides(t *testing.T) {
	t.Parallel()

	var (
		b        = makeBundle(t, "demo")
		template = filepath.Join(t.TempDir(), "Info.plist.tmpl")
	)

	require.NoError(t, os.WriteFile(filepath.Join(b.ResourcesDir(), "demo.icns"), nil, 0o600))
	require.NoError(t, os.WriteFile(template,
		[]byte("{{ app_name }}|{{ app_author }}|{{ app_icon }}|{{ app_version }}|{{ year }}|{{ copyright }}"), 0o600))

	require.NoError(t, Write(context.Background(), b, Info{
		AppName:   "Demo App",
		Icon:      "demo.icns",
		Version:   "2.0.0",
		Author:    "acme",
		Copyright: "ACME Inc.",
		Template:  template,
		Year:      2020,
	}))

	require.Equal(t, "Demo App|acme|demo.icns|2.0.0|2020|ACME Inc.", readManifest(t, b))
}

// TestWriteMissingIcon still references an icon that is not in the bundle.
func TestWriteMissingIcon(t *testing.T) {
	t.Parallel()

	b := makeBundle(t, "demo")
	require.NoError(t, Write(context.Background(), b, Info{Icon: "missing.icns", Version: "not-a-version"}))

	manifest := readManifest(t, b)
	require.Contains(t, manifest, "<string>missing.icns</string>")
	require.Contains(t, manifest, "not-a-version")
}

// TestWriteMissingTemplate fails when the template file cannot be read.
func TestWriteMissingTemplate(t *testing.T) {
	t.Parallel()

	b := makeBundle(t, "demo")
	err := Write(context.Background(), b, Info{Template: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	require.NoFileExists(t, b.ManifestPath())
}

// TestDefaultTemplateTokens checks that the built-in template uses only known tokens.
func TestDefaultTemplateTokens(t *testing.T) {
	t.Parallel()

	rendered := Render(DefaultTemplate(), Info{AppName: "a", Author: "b", Icon: "c", Version: "d", Copyright: "e", Year: 1})
	require.Empty(t, leftoverToken.FindAllString(rendered, -1))
	require.Contains(t, DefaultTemplate(), "{{ app_icon }}")
}
