package toolchain

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvsFolder is where named environments live inside a runtime installation.
	EnvsFolder = "envs"

	binFolder          = "bin"
	sitePackagesGlob   = "lib/python*/site-packages"
	pathVariable       = "PATH"
	pythonPathVariable = "PYTHONPATH"
)

// EnvDir returns the directory of a named environment; an empty name means the base.
func EnvDir(base, name string) string {
	if name == "" {
		return base
	}

	return filepath.Join(base, EnvsFolder, name)
}

// Environment returns environ with PATH and PYTHONPATH pointing at the runtime:
// the base bin folder is prepended to PATH and PYTHONPATH lists the base
// site-packages. For a named environment its bin folder is prepended as well
// and PYTHONPATH lists only the environment's site-packages.
func Environment(base, env string, environ []string) []string {
	path := filepath.Join(base, binFolder) + string(os.PathListSeparator) + lookup(environ, pathVariable)
	pythonPath := sitePackages(base)

	if env != "" {
		dir := EnvDir(base, env)
		path = filepath.Join(dir, binFolder) + string(os.PathListSeparator) + path
		pythonPath = sitePackages(dir)
	}

	result := setenv(environ, pathVariable, path)

	return setenv(result, pythonPathVariable, pythonPath)
}

// binDirs returns the folders searched for executables, most specific first.
func binDirs(base, env string) []string {
	if env == "" {
		return []string{filepath.Join(base, binFolder)}
	}

	return []string{filepath.Join(EnvDir(base, env), binFolder), filepath.Join(base, binFolder)}
}

// resolve finds name in dirs so the provisioned runtime wins over system tools.
// Names containing a separator and names not found are returned unchanged.
func resolve(name string, dirs ...string) string {
	if strings.ContainsRune(name, filepath.Separator) {
		return name
	}

	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)

		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() && info.Mode().Perm()&0o111 != 0 {
			return candidate
		}
	}

	return name
}

func sitePackages(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, sitePackagesGlob))
	if err != nil {
		return ""
	}

	return strings.Join(matches, string(os.PathListSeparator))
}

func lookup(environ []string, key string) string {
	prefix := key + "="

	for i := len(environ) - 1; i >= 0; i-- {
		if value, found := strings.CutPrefix(environ[i], prefix); found {
			return value
		}
	}

	return ""
}

func setenv(environ []string, key, value string) []string {
	prefix := key + "="
	result := make([]string, 0, len(environ)+1)

	for _, kv := range environ {
		if !strings.HasPrefix(kv, prefix) {
			result = append(result, kv)
		}
	}

	return append(result, prefix+value)
}
