package launcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	goupdate "github.com/doitdistributed/go-update"
	"mvdan.cc/sh/v3/syntax"

	domain "github.com/oshokin/osx-bundler/internal/domain/bundle"
	"github.com/oshokin/osx-bundler/internal/fsutil"
	"github.com/oshokin/osx-bundler/internal/logger"
)

const (
	// executableBits are added to the launcher for owner, group and other.
	executableBits fs.FileMode = 0o111
	// defaultFileMode is used when no launcher existed before.
	defaultFileMode fs.FileMode = 0o644
)

// ErrWriteLauncher is returned when the launcher file cannot be written.
var ErrWriteLauncher = errors.New("could not create launcher script")

// DefaultScript returns the console script path, relative to Contents,
// that pip creates for the application package.
func DefaultScript(name string) string {
	return path.Join(domain.ResourcesFolder, "bin", name)
}

// Render returns the launcher body running script, given relative to Contents.
func Render(script string) (string, error) {
	quoted, err := syntax.Quote(script, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("quote script path: %w", err)
	}

	var sb strings.Builder

	sb.WriteString("#!/usr/bin/env bash\n")
	sb.WriteString(`contents_dir=$(dirname "$(dirname "$0")")` + "\n")
	sb.WriteString(`export PATH="$contents_dir/Resources/bin/":$PATH` + "\n")
	sb.WriteString(`"$contents_dir/Resources/bin/python" "$contents_dir"/` + quoted + ` "$@"` + "\n")

	body := sb.String()

	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	if _, err = parser.Parse(strings.NewReader(body), "launcher"); err != nil {
		return "", fmt.Errorf("launcher is not valid bash: %w", err)
	}

	return body, nil
}

// Generate writes the launcher for the bundle. An empty script uses
// DefaultScript. A script missing from the bundle is logged, not fatal.
func Generate(ctx context.Context, b *domain.Bundle, script string) error {
	ctx = logger.WithName(ctx, "launcher")

	if script == "" {
		script = DefaultScript(b.Name())
	}

	script = strings.TrimPrefix(path.Clean(filepathToSlash(script)), "/")

	if exists, err := fsutil.Exists(b.ContentsPath(script)); err != nil || !exists {
		logger.ErrorKV(ctx, "Entry point script does not exist, the application will not start",
			"script", b.ContentsPath(script))
	}

	body, err := Render(script)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteLauncher, err)
	}

	target := b.ExecutablePath()

	mode, err := prepareTarget(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteLauncher, err)
	}

	err = goupdate.Apply(strings.NewReader(body), goupdate.Options{
		TargetPath: target,
		TargetMode: mode,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteLauncher, err)
	}

	if err = os.Chmod(target, mode|executableBits); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteLauncher, err)
	}

	logger.InfoKV(ctx, "Wrote launcher", "path", target, "script", script)

	return nil
}

// prepareTarget makes sure the launcher file exists, since the atomic
// replacement needs something to replace, and returns its permission bits.
func prepareTarget(target string) (fs.FileMode, error) {
	info, err := os.Stat(target)
	if err == nil {
		return info.Mode().Perm(), nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return 0, err
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return 0, err
	}

	if err = file.Close(); err != nil {
		return 0, err
	}

	return defaultFileMode, nil
}

// filepathToSlash accepts both separators in user-supplied script paths.
func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
