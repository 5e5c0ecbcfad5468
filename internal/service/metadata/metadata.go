package metadata

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	domain "github.com/oshokin/osx-bundler/internal/domain/bundle"
	"github.com/oshokin/osx-bundler/internal/fsutil"
	"github.com/oshokin/osx-bundler/internal/logger"
)

// DefaultVersion is written when Info.Version is empty.
const DefaultVersion = "0.1.0"

// manifestFileMode is the permission of the written Info.plist.
const manifestFileMode os.FileMode = 0o644

//go:embed Info.template.plist
var defaultTemplate string

// leftoverToken finds placeholders that survived substitution.
var leftoverToken = regexp.MustCompile(`{{\s*[A-Za-z_]+\s*}}`)

// Info holds the manifest values. Empty fields take defaults.
type Info struct {
	// AppName defaults to the bundle name.
	AppName string
	// Icon is the icon file name inside Contents/Resources.
	Icon string
	// Version defaults to DefaultVersion.
	Version string
	// Author defaults to AppName.
	Author string
	// Copyright defaults to "<AppName> contributors".
	Copyright string
	// Template is a path to a template file; empty uses the built-in one.
	Template string
	// Year defaults to the current year.
	Year int
}

// DefaultTemplate returns the built-in Info.plist template.
func DefaultTemplate() string {
	return defaultTemplate
}

// Write renders the manifest into the bundle.
func Write(ctx context.Context, b *domain.Bundle, info Info) error {
	ctx = logger.WithName(ctx, "metadata")

	info = withDefaults(b, info)

	template := defaultTemplate

	if info.Template != "" {
		contents, err := os.ReadFile(info.Template)
		if err != nil {
			return fmt.Errorf("read manifest template: %w", err)
		}

		template = string(contents)
	}

	if info.Icon != "" {
		exists, err := fsutil.Exists(filepath.Join(b.ResourcesDir(), info.Icon))
		if err != nil || !exists {
			logger.WarnKV(ctx, "Icon is not in the bundle resources, the manifest will reference a missing file",
				"icon", info.Icon)
		}
	}

	if _, err := semver.NewVersion(info.Version); err != nil {
		logger.WarnKV(ctx, "Application version is not a semantic version", "version", info.Version)
	}

	manifest := Render(template, info)

	if leftovers := leftoverToken.FindAllString(manifest, -1); len(leftovers) > 0 {
		logger.WarnKV(ctx, "Manifest template has unknown placeholders", "placeholders", leftovers)
	}

	if err := os.WriteFile(b.ManifestPath(), []byte(manifest), manifestFileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	logger.InfoKV(ctx, "Wrote manifest", "path", b.ManifestPath())

	return nil
}

// Render substitutes the known placeholders in template. Info must already
// carry its defaults.
func Render(template string, info Info) string {
	replacer := strings.NewReplacer(
		"{{ app_name }}", info.AppName,
		"{{ app_author }}", info.Author,
		"{{ app_icon }}", info.Icon,
		"{{ app_version }}", info.Version,
		"{{ year }}", strconv.Itoa(info.Year),
		"{{ copyright }}", info.Copyright,
	)

	return replacer.Replace(template)
}

func withDefaults(b *domain.Bundle, info Info) Info {
	if info.AppName == "" {
		info.AppName = b.Name()
	}

	if info.Author == "" {
		info.Author = info.AppName
	}

	if info.Copyright == "" {
		info.Copyright = info.AppName + " contributors"
	}

	if info.Version == "" {
		info.Version = DefaultVersion
	}

	if info.Year == 0 {
		info.Year = time.Now().Year()
	}

	return info
}
