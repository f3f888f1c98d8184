// Package paths provides centralized path handling for objstore.
// It implements XDG Base Directory specification compliance and resolves
// the directories the store factory and CLI need.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/objstore/pkg/errors"
)

// Environment variable names
const (
	// EnvStoreRoot is the directory plain store names are resolved against
	EnvStoreRoot = "OBJSTORE_ROOT"

	// EnvConfigDir overrides the XDG config directory for objstore
	EnvConfigDir = "OBJSTORE_CONFIG_DIR"

	// EnvCacheDir overrides the XDG cache directory for objstore
	EnvCacheDir = "OBJSTORE_CACHE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

const (
	// DirName is the directory name for objstore-specific files
	DirName = "objstore"

	// ConfigFileName is the name of the user configuration file
	ConfigFileName = "config.toml"
)

// Paths provides the directories objstore reads from and writes to.
type Paths interface {
	StoreRoot() string
	ConfigDir() string
	ConfigFile() string
	CacheDir() string
	StateDir() string
	ResolveStore(name string) string
}

type paths struct {
	storeRoot string
	xdgConfig string
	xdgCache  string
	xdgState  string
}

// DefaultCacheDir returns the compiled-in cache directory used for cached
// reads before anyone calls SetCacheDir. It ignores OBJSTORE_CACHE_DIR.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, DirName)
}

// New creates a Paths instance. An empty storeRoot falls back to
// OBJSTORE_ROOT and then to the working directory.
func New(storeRoot string) (Paths, error) {
	p := &paths{}

	if storeRoot == "" {
		storeRoot = os.Getenv(EnvStoreRoot)
	}
	if storeRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "failed to get current directory")
		}
		storeRoot = cwd
	}

	absRoot, err := filepath.Abs(expandHome(storeRoot))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "failed to get absolute path for store root %s", storeRoot)
	}
	p.storeRoot = absRoot

	p.setupXDGDirs()
	return p, nil
}

// setupXDGDirs initializes XDG directories, respecting environment overrides
func (p *paths) setupXDGDirs() {
	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = expandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, DirName)
	}

	if cacheDir := os.Getenv(EnvCacheDir); cacheDir != "" {
		p.xdgCache = expandHome(cacheDir)
	} else {
		p.xdgCache = DefaultCacheDir()
	}

	// XDG doesn't expose StateHome consistently across platforms, so check manually
	if stateDir := os.Getenv("XDG_STATE_HOME"); stateDir != "" {
		p.xdgState = filepath.Join(stateDir, DirName)
	} else {
		homeDir, _ := os.UserHomeDir()
		p.xdgState = filepath.Join(homeDir, ".local", "state", DirName)
	}
}

// expandHome expands ~ to the home directory
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~something (not the user's home)
	return path
}

// ExpandHome is the exported form of expandHome.
func ExpandHome(path string) string {
	return expandHome(path)
}

func (p *paths) StoreRoot() string { return p.storeRoot }

func (p *paths) ConfigDir() string { return p.xdgConfig }

func (p *paths) ConfigFile() string { return filepath.Join(p.xdgConfig, ConfigFileName) }

// CacheDir honours OBJSTORE_CACHE_DIR, unlike DefaultCacheDir.
func (p *paths) CacheDir() string { return p.xdgCache }

func (p *paths) StateDir() string { return p.xdgState }

// ResolveStore maps a plain store name to a directory. Absolute and
// home-relative names are kept; anything else lands under StoreRoot.
func (p *paths) ResolveStore(name string) string {
	name = expandHome(name)
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(p.storeRoot, name)
}
