package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/osx-bundler/internal/config"
	"github.com/oshokin/osx-bundler/internal/logger"
	"github.com/oshokin/osx-bundler/internal/prompt"
	"github.com/oshokin/osx-bundler/internal/service/pipeline"
	"github.com/oshokin/osx-bundler/internal/toolchain"
	"github.com/oshokin/osx-bundler/internal/version"
)

var (
	// configPath to the optional configuration YAML file.
	configPath string
	// makeDMG is the bundle to pack when only a disk image is requested.
	makeDMG string
	// clean removes build leftovers instead of building.
	clean bool

	// rootCmd builds a macOS application bundle for a Python package.
	rootCmd = &cobra.Command{
		Use:   "osx-bundler [flags] app_name",
		Short: "Bundle a Python application and a conda runtime into a macOS .app",
		Long: `osx-bundler installs Miniconda, creates a conda environment for the
application, pip-installs it and packs the environment into <name>.app with a
launcher, an Info.plist and a code signature, optionally wrapped in a .dmg.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}

			if len(args) > 0 {
				cfg.Name = args[0]
			}

			level, ok := logger.ParseLogLevel(cfg.LogLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q, expected one of %v", cfg.LogLevel, config.LogLevels())
			}

			logger.SetLevel(level)

			cmd.SilenceUsage = true

			options := []pipeline.Option{
				pipeline.WithToolchain(newToolchain()),
				pipeline.WithConfirm(prompt.Stdin()),
			}

			switch {
			case clean:
				return pipeline.Clean(ctx, cfg, options...)
			case makeDMG != "":
				if err = config.ValidateCommon(cfg); err != nil {
					return err
				}

				_, err = pipeline.MakeImage(ctx, cfg, makeDMG, options...)

				return err
			default:
				return pipeline.Run(ctx, cfg, options...)
			}
		},
	}
)

// Execute runs the osx-bundler CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newToolchain streams the output of external programs when the user asked
// for informational logs.
func newToolchain() toolchain.Toolchain {
	if logger.Level() > zapcore.InfoLevel {
		return toolchain.New()
	}

	return toolchain.New(toolchain.WithOutput(os.Stderr, os.Stderr))
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(&configPath, "config", "c", "", "path to configuration file")
	flags.StringVar(&makeDMG, "make-dmg", "", "only pack an existing .app into a .dmg and exit")
	flags.BoolVar(&clean, "clean", false, "remove the conda installation, dist and build folders and exit")

	flags.BoolP("no-confirm", "y", false, "do not ask before replacing an existing bundle or environment")
	flags.StringP("icon", "i", "", "path to an .icns file")
	flags.String("distpath", config.DefaultDistPath, "where to put the bundled app")
	flags.String("buildpath", config.DefaultBuildPath, "where to put build resources")
	flags.String("py", config.DefaultPythonVersion, fmt.Sprintf("python version, one of %v", config.PythonVersions()))
	flags.Bool("no-dmg", false, "do not pack the app into a .dmg")
	flags.StringSlice("pip-install", nil, "packages to pip install, comma-separated or repeated; defaults to the app name")
	flags.String("pip-args", "", "extra pip install arguments")
	flags.StringSlice("conda-include", nil, "top-level environment entries to copy, comma-separated or repeated; defaults to all")
	flags.StringSlice("conda-exclude", config.DefaultCondaExclude(), "patterns relative to Contents/Resources to remove, comma-separated or repeated")
	flags.String("cert-name", config.DefaultCertName, `signing identity, "-" signs ad hoc and "" skips signing`)
	flags.String("log-level", config.DefaultLogLevel, fmt.Sprintf("log level, one of %v", config.LogLevels()))
	flags.String("app-version", config.DefaultAppVersion, "version written to Info.plist")
	flags.String("author", "", "author written to Info.plist, defaults to the app name")
	flags.String("copyright", "", `copyright holder, defaults to "<app name> contributors"`)
	flags.String("plist-template", "", "Info.plist template to use instead of the built-in one")
	flags.String("installer-url", config.DefaultInstallerURL, "Miniconda installer to download")

	rootCmd.MarkFlagsMutuallyExclusive("clean", "make-dmg")
}
