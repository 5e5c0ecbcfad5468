package packages

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-shellwords"

	"github.com/oshokin/osx-bundler/internal/fsutil"
	"github.com/oshokin/osx-bundler/internal/logger"
	"github.com/oshokin/osx-bundler/internal/prompt"
	"github.com/oshokin/osx-bundler/internal/toolchain"
)

// OverwriteQuestion is asked when the environment already exists.
const OverwriteQuestion = "Environment already exists, overwrite?"

// errBadPipArgs is returned when extra pip arguments cannot be split.
var errBadPipArgs = errors.New("invalid pip arguments")

// Request describes the environment to build.
type Request struct {
	// Base is the runtime installation directory.
	Base string
	// Name is the application and environment name.
	Name string
	// PythonVersion pins the interpreter.
	PythonVersion string
	// Packages are installed with pip; empty installs Name.
	Packages []string
	// ExtraPipArgs are additional pip arguments in shell syntax.
	ExtraPipArgs string
}

// Installer builds environments through an EnvManager.
type Installer struct {
	envs    toolchain.EnvManager
	confirm prompt.Policy
}

// New creates an Installer. A nil confirm means yes.
func New(envs toolchain.EnvManager, confirm prompt.Policy) *Installer {
	if confirm == nil {
		confirm = prompt.Yes
	}

	return &Installer{
		envs:    envs,
		confirm: confirm,
	}
}

// CreateEnv returns <base>/envs/<name> with the requested packages installed.
// When an existing environment is kept, nothing is installed into it.
// Nonzero conda and pip exits are logged; a missing environment then fails
// the resource copy.
func (i *Installer) CreateEnv(ctx context.Context, req *Request) (string, error) {
	ctx = logger.WithName(ctx, "packages")
	envDir := toolchain.EnvDir(req.Base, req.Name)

	extraArgs, err := shellwords.Parse(req.ExtraPipArgs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errBadPipArgs, err)
	}

	exists, err := fsutil.Exists(envDir)
	if err != nil {
		return "", fmt.Errorf("stat environment: %w", err)
	}

	if exists {
		if !i.confirm(ctx, OverwriteQuestion) {
			logger.InfoKV(ctx, "Reusing existing environment", "path", envDir)

			return envDir, nil
		}

		logger.InfoKV(ctx, "Removing existing environment", "path", envDir)

		if err = os.RemoveAll(envDir); err != nil {
			return "", fmt.Errorf("remove existing environment: %w", err)
		}
	}

	logger.InfoKV(ctx, "Creating environment", "name", req.Name, "python", req.PythonVersion)

	result, err := i.envs.CreateEnv(ctx, req.Base, req.Name, req.PythonVersion)
	if err != nil {
		return "", fmt.Errorf("create environment: %w", err)
	}

	if !result.Success() {
		logger.ErrorKV(ctx, "Environment creation failed",
			"exit_code", result.ExitCode,
			"output", result.ErrorOutput())
	}

	packages := req.Packages
	if len(packages) == 0 {
		packages = []string{req.Name}
	}

	args := append([]string{"pip", "install", "--ignore-installed"}, extraArgs...)
	args = append(args, packages...)

	logger.InfoKV(ctx, "Installing packages", "packages", packages)

	result, err = i.envs.RunInEnv(ctx, req.Base, req.Name, args...)
	if err != nil {
		return "", fmt.Errorf("install packages: %w", err)
	}

	if !result.Success() {
		logger.ErrorKV(ctx, "Package installation failed",
			"exit_code", result.ExitCode,
			"output", result.ErrorOutput())
	}

	return envDir, nil
}
