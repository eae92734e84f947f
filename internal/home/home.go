package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the outline home directory.
	DefaultDirName = ".outline"

	// DataDirName is the subdirectory DefraDB mounts as its store.
	DataDirName = "data"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// PidFileName marks a running server.
	PidFileName = "outline.pid"

	// AliasDBName is the sqlite file used by the sqlite alias backend.
	AliasDBName = "aliases.db"
)

// Dir represents the outline home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.outline).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// PidPath returns the path to the server pid file.
func (d *Dir) PidPath() string {
	return filepath.Join(d.path, PidFileName)
}

// AliasDBPath resolves the sqlite alias database. A relative configured path is
// taken relative to the home directory; empty means the default file name.
func (d *Dir) AliasDBPath(configured string) string {
	switch {
	case configured == "":
		return filepath.Join(d.path, AliasDBName)
	case filepath.IsAbs(configured):
		return configured
	default:
		return filepath.Join(d.path, configured)
	}
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create data directory (this also creates the parent)
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
