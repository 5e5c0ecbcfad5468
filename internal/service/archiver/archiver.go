package archiver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/oshokin/osx-bundler/internal/domain/bundle"
	"github.com/oshokin/osx-bundler/internal/fsutil"
	"github.com/oshokin/osx-bundler/internal/logger"
	"github.com/oshokin/osx-bundler/internal/toolchain"
)

const (
	// StagingFolder is created next to the bundle.
	StagingFolder = "dmg"
	// ApplicationsLink is the shortcut users drop the app on.
	ApplicationsLink = "Applications"
	// ApplicationsTarget is where ApplicationsLink points.
	ApplicationsTarget = "/Applications"
)

// Archiver builds disk images.
type Archiver struct {
	imager toolchain.Imager
}

// New creates an Archiver backed by imager.
func New(imager toolchain.Imager) *Archiver {
	return &Archiver{imager: imager}
}

// Make builds the disk image for appPath and returns its path. With keepApp
// the bundle is copied into the image, otherwise it is moved. When hdiutil
// fails the staging folder is left for inspection and "" is returned without
// an error; errors are reserved for local file operations.
func (a *Archiver) Make(ctx context.Context, appPath string, keepApp bool) (string, error) {
	ctx = logger.WithName(ctx, "archiver")

	appPath, err := fsutil.ExpandPath(appPath)
	if err != nil {
		return "", err
	}

	var (
		b       = domain.New(appPath)
		staging = filepath.Join(filepath.Dir(b.Path), StagingFolder)
		staged  = filepath.Join(staging, filepath.Base(b.Path))
		output  = b.ArchivePath()
	)

	if err = os.MkdirAll(staging, fsutil.DirMode); err != nil {
		return "", fmt.Errorf("create staging folder: %w", err)
	}

	if err = ensureApplicationsLink(staging); err != nil {
		return "", err
	}

	if err = os.RemoveAll(staged); err != nil {
		return "", fmt.Errorf("clear staged bundle: %w", err)
	}

	if keepApp {
		logger.InfoKV(ctx, "Copying bundle into staging folder", "staging", staging)

		err = fsutil.CopyTree(b.Path, staged)
	} else {
		logger.InfoKV(ctx, "Moving bundle into staging folder", "staging", staging)

		err = fsutil.Move(b.Path, staged)
	}

	if err != nil {
		return "", fmt.Errorf("stage bundle: %w", err)
	}

	logger.InfoKV(ctx, "Creating disk image", "output", output)

	result, err := a.imager.CreateImage(ctx, staging, output)
	if err != nil {
		logger.ErrorKV(ctx, "Unable to run hdiutil", "error", err)

		return "", nil
	}

	if !result.Success() {
		logger.ErrorKV(ctx, "Disk image creation failed",
			"exit_code", result.ExitCode,
			"output", result.ErrorOutput(),
			"staging", staging)

		return "", nil
	}

	if err = os.RemoveAll(staging); err != nil {
		return "", fmt.Errorf("remove staging folder: %w", err)
	}

	logger.InfoKV(ctx, "Created disk image", "path", output)

	return output, nil
}

// ensureApplicationsLink creates the Applications shortcut once.
func ensureApplicationsLink(staging string) error {
	link := filepath.Join(staging, ApplicationsLink)

	exists, err := fsutil.Exists(link)
	if err != nil {
		return fmt.Errorf("stat applications link: %w", err)
	}

	if exists {
		return nil
	}

	if err = os.Symlink(ApplicationsTarget, link); err != nil {
		return fmt.Errorf("create applications link: %w", err)
	}

	return nil
}
