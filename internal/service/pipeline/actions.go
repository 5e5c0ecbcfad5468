package pipeline

import (
	"context"
	"os"

	"github.com/fatih/color"
	"go.uber.org/multierr"

	"github.com/oshokin/osx-bundler/internal/config"
	"github.com/oshokin/osx-bundler/internal/fsutil"
	"github.com/oshokin/osx-bundler/internal/logger"
	"github.com/oshokin/osx-bundler/internal/service/archiver"
	"github.com/oshokin/osx-bundler/internal/service/provision"
)

// MakeImage builds a disk image from an existing bundle, keeping the bundle.
func MakeImage(ctx context.Context, cfg *config.Config, appPath string, opts ...Option) (string, error) {
	return New(cfg, opts...).MakeImage(ctx, appPath)
}

// MakeImage builds a disk image from an existing bundle, keeping the bundle.
// A failed hdiutil run is logged and yields "" without an error.
func (p *Pipeline) MakeImage(ctx context.Context, appPath string) (string, error) {
	ctx = logger.WithName(ctx, "pipeline")

	archive, err := archiver.New(p.tools).Make(ctx, appPath, true)
	if err != nil {
		return "", err
	}

	if archive != "" {
		_, _ = color.New(color.FgGreen, color.Bold).Fprintf(p.out, "Created %s\n", archive)
	}

	return archive, nil
}

// Clean removes the runtime installation, the distribution path and the build path.
func Clean(ctx context.Context, cfg *config.Config, opts ...Option) error {
	return New(cfg, opts...).Clean(ctx)
}

// Clean removes everything builds leave behind. Failures are logged and the
// remaining folders are still removed; Clean itself never fails.
func (p *Pipeline) Clean(ctx context.Context) error {
	ctx = logger.WithName(ctx, "clean")

	if err := config.ValidateCommon(p.cfg); err != nil {
		return err
	}

	var (
		targets []string
		errs    error
	)

	base, err := provision.SafeBase(ctx, p.cfg.BuildPath)
	errs = multierr.Append(errs, err)

	if base != "" {
		targets = append(targets, base)
	}

	for _, path := range []string{p.cfg.DistPath, p.cfg.BuildPath} {
		expanded, err := fsutil.ExpandPath(path)
		if err != nil {
			errs = multierr.Append(errs, err)

			continue
		}

		targets = append(targets, expanded)
	}

	removed := color.New(color.FgRed)

	for _, target := range targets {
		exists, err := fsutil.Exists(target)
		if err != nil {
			errs = multierr.Append(errs, err)

			continue
		}

		if !exists {
			logger.DebugKV(ctx, "Nothing to remove", "path", target)

			continue
		}

		if err = os.RemoveAll(target); err != nil {
			errs = multierr.Append(errs, err)

			continue
		}

		_, _ = removed.Fprintf(p.out, "Removed %s\n", target)
	}

	for _, err := range multierr.Errors(errs) {
		logger.ErrorKV(ctx, "Cleanup incomplete", "error", err)
	}

	return nil
}
