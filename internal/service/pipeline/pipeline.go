package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/oshokin/osx-bundler/internal/config"
	"github.com/oshokin/osx-bundler/internal/logger"
	"github.com/oshokin/osx-bundler/internal/prompt"
	"github.com/oshokin/osx-bundler/internal/repository/receipt"
	"github.com/oshokin/osx-bundler/internal/service/archiver"
	bundlesvc "github.com/oshokin/osx-bundler/internal/service/bundle"
	"github.com/oshokin/osx-bundler/internal/service/launcher"
	"github.com/oshokin/osx-bundler/internal/service/metadata"
	"github.com/oshokin/osx-bundler/internal/service/packages"
	"github.com/oshokin/osx-bundler/internal/service/provision"
	"github.com/oshokin/osx-bundler/internal/service/resources"
	"github.com/oshokin/osx-bundler/internal/service/signer"
	"github.com/oshokin/osx-bundler/internal/toolchain"
	"github.com/oshokin/osx-bundler/internal/version"
)

// Pipeline holds the collaborators of a single bundling run.
type Pipeline struct {
	cfg        *config.Config
	tools      toolchain.Toolchain
	downloader provision.Downloader
	confirm    prompt.Policy
	processes  bundlesvc.ProcessLister
	now        func() time.Time
	out        io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithToolchain replaces the external programs.
func WithToolchain(tools toolchain.Toolchain) Option {
	return func(p *Pipeline) {
		p.tools = tools
	}
}

// WithDownloader replaces the installer downloader.
func WithDownloader(downloader provision.Downloader) Option {
	return func(p *Pipeline) {
		p.downloader = downloader
	}
}

// WithConfirm sets the overwrite confirmation policy.
func WithConfirm(confirm prompt.Policy) Option {
	return func(p *Pipeline) {
		p.confirm = confirm
	}
}

// WithProcessLister replaces the running process lookup.
func WithProcessLister(processes bundlesvc.ProcessLister) Option {
	return func(p *Pipeline) {
		p.processes = processes
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithOutput sets where the user-facing summary is printed.
func WithOutput(out io.Writer) Option {
	return func(p *Pipeline) {
		p.out = out
	}
}

// New creates a Pipeline with production defaults for everything not overridden.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		tools:      toolchain.New(),
		downloader: provision.NewHTTPDownloader(),
		confirm:    prompt.Yes,
		now:        time.Now,
		out:        os.Stdout,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.confirm == nil || (cfg != nil && cfg.NoConfirm) {
		p.confirm = prompt.Yes
	}

	return p
}

// Run validates cfg and builds the bundle with production collaborators.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) error {
	return New(cfg, opts...).Run(ctx)
}

// Run builds the bundle. Signing and disk image failures are logged and do
// not fail the run.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := config.Validate(p.cfg); err != nil {
		return err
	}

	var (
		cfg   = p.cfg
		start = p.now()
	)

	ctx = logger.WithKV(logger.WithName(ctx, "pipeline"), "app", cfg.Name)

	receipts := receipt.NewFileRepository(receipt.PathFor(cfg.BuildPath, cfg.Name))
	p.logPreviousBuild(ctx, receipts)

	b, err := bundlesvc.Create(ctx, cfg.Name, cfg.DistPath, &bundlesvc.Options{
		Confirm:   p.confirm,
		Processes: p.processes,
	})
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}

	base, err := provision.New(p.tools, p.downloader).Ensure(ctx, &provision.Options{
		BuildPath:    cfg.BuildPath,
		InstallerURL: cfg.InstallerURL,
	})
	if err != nil {
		return fmt.Errorf("provision runtime: %w", err)
	}

	envDir, err := packages.New(p.tools, p.confirm).CreateEnv(ctx, &packages.Request{
		Base:          base,
		Name:          cfg.Name,
		PythonVersion: cfg.PythonVersion,
		Packages:      cfg.PipInstall,
		ExtraPipArgs:  cfg.PipArgs,
	})
	if err != nil {
		return fmt.Errorf("create environment: %w", err)
	}

	if err = resources.Copy(ctx, envDir, b, cfg.CondaInclude, cfg.CondaExclude); err != nil {
		return fmt.Errorf("copy environment: %w", err)
	}

	icon, err := resources.CopyIcon(ctx, b, cfg.Icon)
	if err != nil {
		return err
	}

	err = metadata.Write(ctx, b, metadata.Info{
		AppName:   cfg.Name,
		Icon:      icon,
		Version:   cfg.AppVersion,
		Author:    cfg.Author,
		Copyright: cfg.Copyright,
		Template:  cfg.PlistTemplate,
		Year:      start.Year(),
	})
	if err != nil {
		return err
	}

	if err = launcher.Generate(ctx, b, ""); err != nil {
		logger.CriticalKV(ctx, "Could not create launcher script", "path", b.ExecutablePath(), "error", err)

		return err
	}

	signed := signer.New(p.tools).Sign(ctx, b.Path, cfg.CertName)

	var archive string

	if !cfg.NoDMG {
		archive, err = archiver.New(p.tools).Make(ctx, b.Path, false)
		if err != nil {
			return fmt.Errorf("create disk image: %w", err)
		}
	}

	elapsed := p.now().Sub(start)

	p.printResult(b.Path, archive, start)

	logger.InfoKV(ctx, "Build finished", "elapsed", elapsed.String(), "signed", signed)

	saved := &receipt.Receipt{
		App:           cfg.Name,
		Bundle:        b.Path,
		Archive:       archive,
		RuntimeBase:   base,
		EnvDir:        envDir,
		PythonVersion: cfg.PythonVersion,
		Packages:      packagesOf(cfg),
		Signed:        signed,
		Duration:      elapsed,
		BuiltAt:       start,
		ToolVersion:   version.Short(),
	}
	if err = receipts.Save(ctx, saved); err != nil {
		logger.WarnKV(ctx, "Unable to save build receipt", "error", err)
	}

	return nil
}

// printResult tells the user where the deliverable is.
func (p *Pipeline) printResult(bundlePath, archive string, start time.Time) {
	took := humanize.RelTime(start, p.now(), "", "")
	green := color.New(color.FgGreen, color.Bold)

	switch {
	case p.cfg.NoDMG:
		_, _ = green.Fprintf(p.out, "Created %s (took %s)\n", bundlePath, took)
	case archive != "":
		_, _ = green.Fprintf(p.out, "Created %s (took %s)\n", archive, took)
	default:
		_, _ = color.New(color.FgYellow).Fprintf(p.out,
			"Disk image was not created, the bundle is in the dmg staging folder (took %s)\n", took)
	}
}

func (p *Pipeline) logPreviousBuild(ctx context.Context, receipts receipt.Repository) {
	previous, err := receipts.Load(ctx)

	switch {
	case errors.Is(err, receipt.ErrNotFound):
		logger.Debug(ctx, "No previous build found")
	case err != nil:
		logger.DebugKV(ctx, "Unable to read previous build receipt", "error", err)
	default:
		logger.DebugKV(ctx, "Previous build",
			"built_at", previous.BuiltAt,
			"python", previous.PythonVersion,
			"packages", previous.Packages,
			"tool_version", previous.ToolVersion)
	}
}

func packagesOf(cfg *config.Config) []string {
	if len(cfg.PipInstall) > 0 {
		return cfg.PipInstall
	}

	return []string{cfg.Name}
}
