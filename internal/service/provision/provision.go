package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/oshokin/osx-bundler/internal/fsutil"
	"github.com/oshokin/osx-bundler/internal/logger"
	"github.com/oshokin/osx-bundler/internal/toolchain"
)

const (
	// RuntimeFolder is the runtime directory name inside the build path.
	RuntimeFolder = "conda"
	// FallbackDir is used when the build path contains spaces.
	FallbackDir = "~/_temp_conda"
	// InstallerFilename is the cached installer inside the build path.
	InstallerFilename = "miniconda_installer.sh"
	// LockFilename serialises provisioning between concurrent bundler runs.
	LockFilename = ".osx-bundler.lock"

	lockRetryDelay = 500 * time.Millisecond
)

var (
	// ErrInstallFailed is returned when the installer exits with a nonzero status.
	ErrInstallFailed = errors.New("miniconda installation failed")
	// errNotLocked is returned when the build lock could not be taken.
	errNotLocked = errors.New("build path is locked by another process")
)

// Downloader fetches a URL into a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Options are inputs of Ensure.
type Options struct {
	// BuildPath is the directory holding build resources.
	BuildPath string
	// InstallerURL is where the installer is downloaded from when not cached.
	InstallerURL string
}

// Provisioner installs or reuses the runtime.
type Provisioner struct {
	installer  toolchain.Installer
	downloader Downloader
}

// New creates a Provisioner.
func New(installer toolchain.Installer, downloader Downloader) *Provisioner {
	return &Provisioner{
		installer:  installer,
		downloader: downloader,
	}
}

// SafeBase returns the runtime install location for buildPath: <buildPath>/conda
// when it has no spaces, ~/_temp_conda otherwise.
func SafeBase(ctx context.Context, buildPath string) (string, error) {
	abs, err := fsutil.ExpandPath(buildPath)
	if err != nil {
		return "", err
	}

	condaDir := filepath.Join(abs, RuntimeFolder)
	if !strings.Contains(condaDir, " ") {
		return condaDir, nil
	}

	altDir, err := fsutil.ExpandPath(FallbackDir)
	if err != nil {
		return "", err
	}

	logger.WarnKV(ctx, "Space found in target conda directory, using alternative path",
		"conda_dir", condaDir, "alternative", altDir)

	return altDir, nil
}

// Ensure returns the runtime base, installing Miniconda first if needed.
// The returned path is the only runtime location later steps should use.
func (p *Provisioner) Ensure(ctx context.Context, opts *Options) (string, error) {
	buildPath, err := fsutil.ExpandPath(opts.BuildPath)
	if err != nil {
		return "", err
	}

	if err = os.MkdirAll(buildPath, fsutil.DirMode); err != nil {
		return "", fmt.Errorf("create build path: %w", err)
	}

	base, err := SafeBase(ctx, buildPath)
	if err != nil {
		return "", err
	}

	lock := flock.New(filepath.Join(buildPath, LockFilename))

	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("lock build path: %w", err)
	}

	if !locked {
		return "", errNotLocked
	}

	defer func() {
		_ = lock.Unlock()
	}()

	exists, err := fsutil.Exists(base)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", base, err)
	}

	if exists {
		logger.InfoKV(ctx, "Using existing miniconda installation", "path", base)

		return base, nil
	}

	installer := filepath.Join(buildPath, InstallerFilename)
	if err = p.fetchInstaller(ctx, opts.InstallerURL, installer); err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Installing miniconda", "path", base)

	result, err := p.installer.Install(ctx, installer, base)
	if err != nil {
		return "", fmt.Errorf("install miniconda: %w", err)
	}

	if !result.Success() {
		return "", fmt.Errorf("%w: exit code %d: %s", ErrInstallFailed, result.ExitCode, result.ErrorOutput())
	}

	return base, nil
}

// fetchInstaller downloads the installer unless a cached copy exists.
func (p *Provisioner) fetchInstaller(ctx context.Context, url, dest string) error {
	cached, err := fsutil.Exists(dest)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dest, err)
	}

	if cached {
		logger.DebugKV(ctx, "Using cached miniconda installer", "path", dest)

		return nil
	}

	logger.InfoKV(ctx, "Downloading miniconda installer", "url", url)

	if err = p.downloader.Download(ctx, url, dest); err != nil {
		return fmt.Errorf("download installer: %w", err)
	}

	return nil
}
