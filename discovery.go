package settings

import (
	"os"
	"path/filepath"
	"strings"
)

// FileDiscoveryOptions configures automatic settings file discovery.
type FileDiscoveryOptions struct {
	// Base name of the settings file (without extension)
	Name string

	// Extensions to try, in order
	Extensions []string

	// Custom search paths, searched before the defaults
	Paths []string

	// Environment variable holding an explicit file path
	EnvVar string

	// CLI flag holding an explicit file path (e.g. "--settings")
	CLIFlag string

	// Search XDG config directories
	UseXDG bool

	// Search the current directory
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns discovery options for appName.
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".toml", ".yaml", ".yml", ".json"},
		EnvVar:        strings.ToUpper(appName) + "_SETTINGS",
		CLIFlag:       "--settings",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// discoverFile locates a settings file. It also returns args with the CLI
// flag and its value removed so they are not resolved as settings.
func discoverFile(opts FileDiscoveryOptions, args []string) (string, []string) {
	if opts.CLIFlag != "" {
		for i, arg := range args {
			if arg == opts.CLIFlag && i+1 < len(args) {
				rest := append(append([]string(nil), args[:i]...), args[i+2:]...)
				return args[i+1], rest
			}
			if value, ok := strings.CutPrefix(arg, opts.CLIFlag+"="); ok {
				rest := append(append([]string(nil), args[:i]...), args[i+1:]...)
				return value, rest
			}
		}
	}

	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			return path, args
		}
	}

	var searchPaths []string
	searchPaths = append(searchPaths, opts.Paths...)
	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			searchPaths = append(searchPaths, cwd)
		}
	}
	if opts.UseXDG {
		searchPaths = append(searchPaths, xdgConfigPaths(opts.Name)...)
	}

	for _, dir := range searchPaths {
		for _, ext := range opts.Extensions {
			path := filepath.Join(dir, opts.Name+ext)
			if _, err := os.Stat(path); err == nil {
				return path, args
			}
		}
	}

	// No file found is not an error; the app runs on defaults
	return "", args
}

// xdgConfigPaths returns XDG-compliant config search paths.
func xdgConfigPaths(appName string) []string {
	var paths []string

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		paths = append(paths,
			filepath.Join("/etc/xdg", appName),
			filepath.Join("/etc", appName),
		)
	}

	return paths
}
