package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"

	domain "github.com/oshokin/osx-bundler/internal/domain/bundle"
	"github.com/oshokin/osx-bundler/internal/fsutil"
	"github.com/oshokin/osx-bundler/internal/logger"
	"github.com/oshokin/osx-bundler/internal/prompt"
)

// OverwriteQuestion is asked when the bundle already exists.
const OverwriteQuestion = "App already exists, overwrite?"

// ProcessLister returns the running processes.
type ProcessLister func() ([]ps.Process, error)

// Options are optional inputs of Create.
type Options struct {
	// Confirm decides whether an existing bundle is replaced; nil means yes.
	Confirm prompt.Policy
	// Processes lists running processes; nil uses the process table.
	Processes ProcessLister
}

// Create makes <distPath>/<name>.app with its Contents subfolders.
// An existing bundle is kept as is when the overwrite is declined.
func Create(ctx context.Context, name, distPath string, opts *Options) (*domain.Bundle, error) {
	if opts == nil {
		opts = new(Options)
	}

	confirm := opts.Confirm
	if confirm == nil {
		confirm = prompt.Yes
	}

	dist, err := fsutil.ExpandPath(distPath)
	if err != nil {
		return nil, err
	}

	b := domain.New(domain.PathFor(name, dist))
	ctx = logger.WithKV(ctx, "bundle", b.Path)

	exists, err := fsutil.Exists(b.Path)
	if err != nil {
		return nil, fmt.Errorf("stat bundle: %w", err)
	}

	if exists {
		if !confirm(ctx, OverwriteQuestion) {
			logger.Info(ctx, "Keeping existing bundle")

			return b, nil
		}

		warnIfRunning(ctx, name, opts.Processes)

		logger.Info(ctx, "Removing existing bundle")

		if err = os.RemoveAll(b.Path); err != nil {
			return nil, fmt.Errorf("remove existing bundle: %w", err)
		}
	}

	for _, folder := range domain.Folders() {
		if err = os.MkdirAll(filepath.Join(b.ContentsDir(), folder), fsutil.DirMode); err != nil {
			return nil, fmt.Errorf("create bundle folder: %w", err)
		}
	}

	logger.Info(ctx, "Created bundle folders")

	return b, nil
}

// warnIfRunning logs a warning when a process named after the app is alive,
// since replacing its files under it tends to crash it.
func warnIfRunning(ctx context.Context, name string, processes ProcessLister) {
	if processes == nil {
		processes = ps.Processes
	}

	processList, err := processes()
	if err != nil {
		logger.DebugKV(ctx, "Unable to list processes", "error", err)

		return
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID || process.Executable() != name {
			continue
		}

		logger.WarnKV(ctx, "Application appears to be running while its bundle is replaced",
			"pid", process.Pid())

		return
	}
}
