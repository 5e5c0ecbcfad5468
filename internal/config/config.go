package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every setting of a single bundling run.
type Config struct {
	// Name is the application name; it also names the conda environment.
	Name string `mapstructure:"name"`
	// DistPath is where the finished .app or .dmg is placed.
	DistPath string `mapstructure:"distpath"`
	// BuildPath holds the cached runtime installation and build receipts.
	BuildPath string `mapstructure:"buildpath"`
	// NoConfirm replaces existing bundles and environments without asking.
	NoConfirm bool `mapstructure:"no-confirm"`
	// PythonVersion is the interpreter version pinned in the environment.
	PythonVersion string `mapstructure:"py"`
	// NoDMG skips the disk image step and leaves the bare .app.
	NoDMG bool `mapstructure:"no-dmg"`
	// PipInstall is the explicit package list; empty means install Name.
	PipInstall []string `mapstructure:"pip-install"`
	// PipArgs are extra pip arguments in shell syntax.
	PipArgs string `mapstructure:"pip-args"`
	// CondaInclude lists top-level environment entries to copy; empty copies all.
	CondaInclude []string `mapstructure:"conda-include"`
	// CondaExclude lists patterns, relative to Contents/Resources, removed after copying.
	CondaExclude []string `mapstructure:"conda-exclude"`
	// Icon is an optional .icns file copied into the bundle.
	Icon string `mapstructure:"icon"`
	// CertName is the signing identity; "-" signs ad hoc and "" skips signing.
	CertName string `mapstructure:"cert-name"`
	// LogLevel is one of TRACE, DEBUG, INFO, WARN, ERROR, CRITICAL.
	LogLevel string `mapstructure:"log-level"`
	// AppVersion is written to the manifest.
	AppVersion string `mapstructure:"app-version"`
	// Author overrides the manifest author (defaults to Name).
	Author string `mapstructure:"author"`
	// Copyright overrides the manifest copyright line.
	Copyright string `mapstructure:"copyright"`
	// PlistTemplate is an optional manifest template read from disk.
	PlistTemplate string `mapstructure:"plist-template"`
	// InstallerURL is where the Miniconda installer is downloaded from.
	InstallerURL string `mapstructure:"installer-url"`
}

const (
	// DefaultDistPath is the default output directory.
	DefaultDistPath = "./dist"
	// DefaultBuildPath is the default build cache directory.
	DefaultBuildPath = "./build"
	// DefaultPythonVersion is the oldest supported interpreter version.
	DefaultPythonVersion = "3.8"
	// DefaultCertName requests an ad-hoc signature.
	DefaultCertName = "-"
	// DefaultLogLevel keeps build output to warnings and errors.
	DefaultLogLevel = "WARN"
	// DefaultAppVersion is written to the manifest when none is given.
	DefaultAppVersion = "0.1.0"
	// DefaultInstallerURL points at the latest macOS x86_64 Miniconda installer.
	DefaultInstallerURL = "https://repo.anaconda.com/miniconda/Miniconda3-latest-MacOSX-x86_64.sh"

	// EnvPrefix is the prefix of environment variables overriding settings.
	EnvPrefix = "OSX_BUNDLER"
)

// DefaultCondaExclude drops the Qt4 designer tools, which are never needed at runtime.
func DefaultCondaExclude() []string {
	return []string{"bin/*-qt4*"}
}

// PythonVersions returns the supported interpreter versions, oldest first.
func PythonVersions() []string {
	return []string{"3.8", "3.9", "3.10"}
}

// LogLevels returns the accepted log level names.
func LogLevels() []string {
	return []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "CRITICAL"}
}

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNameRequired is returned when the application name is missing.
	errNameRequired = errors.New("application name must be provided")
	// errUnsupportedPython is returned for interpreter versions outside PythonVersions.
	errUnsupportedPython = errors.New("unsupported python version")
	// errUnknownLogLevel is returned for log levels outside LogLevels.
	errUnknownLogLevel = errors.New("unknown log level")
	// errIconNotFound is returned when --icon does not point to a file.
	errIconNotFound = errors.New("icon file not found")
)

// Load merges defaults, an optional YAML config file, OSX_BUNDLER_* environment
// variables and explicitly set flags, in increasing order of precedence.
// Both path and flags may be empty.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("expand config path: %w", err)
		}

		v.SetConfigFile(filepath.Clean(expanded))

		if err = v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	return &cfg, nil
}

// Validate checks the provided settings for required fields and formatting.
// It fills empty optional fields with defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if strings.TrimSpace(cfg.Name) == "" {
		return errNameRequired
	}

	if err := ValidateCommon(cfg); err != nil {
		return err
	}

	if cfg.Icon != "" {
		icon, err := homedir.Expand(cfg.Icon)
		if err != nil {
			return fmt.Errorf("expand icon path: %w", err)
		}

		info, err := os.Stat(icon)
		if err != nil || info.IsDir() {
			return fmt.Errorf("%s: %w", cfg.Icon, errIconNotFound)
		}

		cfg.Icon = icon
	}

	return nil
}

// ValidateCommon checks the settings shared by the cleanup and archive-only actions,
// which run without an application name.
func ValidateCommon(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.DistPath == "" {
		cfg.DistPath = DefaultDistPath
	}

	if cfg.BuildPath == "" {
		cfg.BuildPath = DefaultBuildPath
	}

	if cfg.PythonVersion == "" {
		cfg.PythonVersion = DefaultPythonVersion
	}

	if !slices.Contains(PythonVersions(), cfg.PythonVersion) {
		return fmt.Errorf("%w: %s (expected one of %s)",
			errUnsupportedPython, cfg.PythonVersion, strings.Join(PythonVersions(), ", "))
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if !slices.Contains(LogLevels(), strings.ToUpper(cfg.LogLevel)) {
		return fmt.Errorf("%w: %s (expected one of %s)",
			errUnknownLogLevel, cfg.LogLevel, strings.Join(LogLevels(), ", "))
	}

	if cfg.AppVersion == "" {
		cfg.AppVersion = DefaultAppVersion
	}

	if cfg.InstallerURL == "" {
		cfg.InstallerURL = DefaultInstallerURL
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "")
	v.SetDefault("distpath", DefaultDistPath)
	v.SetDefault("buildpath", DefaultBuildPath)
	v.SetDefault("no-confirm", false)
	v.SetDefault("py", DefaultPythonVersion)
	v.SetDefault("no-dmg", false)
	v.SetDefault("pip-install", []string{})
	v.SetDefault("pip-args", "")
	v.SetDefault("conda-include", []string{})
	v.SetDefault("conda-exclude", DefaultCondaExclude())
	v.SetDefault("icon", "")
	v.SetDefault("cert-name", DefaultCertName)
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("app-version", DefaultAppVersion)
	v.SetDefault("author", "")
	v.SetDefault("copyright", "")
	v.SetDefault("plist-template", "")
	v.SetDefault("installer-url", DefaultInstallerURL)
}
