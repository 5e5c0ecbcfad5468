package resources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/moby/patternmatcher"

	domain "github.com/oshokin/osx-bundler/internal/domain/bundle"
	"github.com/oshokin/osx-bundler/internal/fsutil"
	"github.com/oshokin/osx-bundler/internal/logger"
)

// errBadPattern is returned for exclude patterns that cannot be compiled.
var errBadPattern = errors.New("invalid exclude pattern")

// Copy copies the include entries of envDir into the bundle resources and then
// removes everything in the resources matching an exclude pattern.
// An empty include list copies every top-level entry of envDir.
func Copy(ctx context.Context, envDir string, b *domain.Bundle, include, exclude []string) error {
	ctx = logger.WithName(ctx, "resources")

	var matcher *patternmatcher.PatternMatcher

	if len(exclude) > 0 {
		var err error

		matcher, err = patternmatcher.New(exclude)
		if err != nil {
			return fmt.Errorf("%w: %w", errBadPattern, err)
		}
	}

	if len(include) == 0 {
		entries, err := os.ReadDir(envDir)
		if err != nil {
			return fmt.Errorf("list environment: %w", err)
		}

		for _, entry := range entries {
			include = append(include, entry.Name())
		}
	}

	resources := b.ResourcesDir()

	for _, name := range include {
		var (
			src = filepath.Join(envDir, filepath.FromSlash(name))
			dst = filepath.Join(resources, filepath.FromSlash(name))
		)

		logger.DebugKV(ctx, "Copying", "source", src, "destination", dst)

		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("remove %s: %w", dst, err)
		}

		if err := fsutil.Copy(src, dst); err != nil {
			return err
		}
	}

	if matcher != nil {
		removeMatches(ctx, resources, matcher)
	}

	return nil
}

// removeMatches deletes every entry under root matched by the matcher.
// Failures are logged and do not stop the walk.
func removeMatches(ctx context.Context, root string, matcher *patternmatcher.PatternMatcher) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.WarnKV(ctx, "Unable to read entry while excluding", "path", path, "error", err)

			return nil
		}

		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil //nolint:nilerr // Entries outside root cannot match.
		}

		matched, err := matcher.MatchesOrParentMatches(rel)
		if err != nil {
			logger.WarnKV(ctx, "Unable to match entry", "path", rel, "error", err)

			return nil
		}

		if !matched {
			return nil
		}

		logger.DebugKV(ctx, "Removing excluded entry", "path", rel)

		if err = os.RemoveAll(path); err != nil {
			logger.ErrorKV(ctx, "Unable to remove excluded entry", "path", rel, "error", err)
		}

		if d.IsDir() {
			return filepath.SkipDir
		}

		return nil
	})
}

// CopyIcon copies iconPath into the bundle resources and returns its file name.
// An empty or missing icon yields "".
func CopyIcon(ctx context.Context, b *domain.Bundle, iconPath string) (string, error) {
	if iconPath == "" {
		return "", nil
	}

	exists, err := fsutil.Exists(iconPath)
	if err != nil {
		return "", fmt.Errorf("stat icon: %w", err)
	}

	if !exists {
		logger.WarnKV(ctx, "Icon file not found, skipping", "icon", iconPath)

		return "", nil
	}

	name := filepath.Base(iconPath)

	if err = fsutil.CopyFile(iconPath, filepath.Join(b.ResourcesDir(), name)); err != nil {
		return "", fmt.Errorf("copy icon: %w", err)
	}

	return name, nil
}
