package testutil

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/objstore/pkg/paths"
)

// MockPaths resolves every directory under a single root
type MockPaths struct {
	root string
}

// NewMockPaths creates paths rooted at root
func NewMockPaths(root string) *MockPaths {
	return &MockPaths{root: filepath.Clean(root)}
}

// StoreRoot returns the directory plain store names resolve against
func (m *MockPaths) StoreRoot() string {
	return filepath.Join(m.root, "stores")
}

// ConfigDir returns the config directory
func (m *MockPaths) ConfigDir() string {
	return filepath.Join(m.root, "config")
}

// ConfigFile returns the config file path
func (m *MockPaths) ConfigFile() string {
	return filepath.Join(m.ConfigDir(), paths.ConfigFileName)
}

// CacheDir returns the cache directory
func (m *MockPaths) CacheDir() string {
	return filepath.Join(m.root, "cache")
}

// StateDir returns the state directory
func (m *MockPaths) StateDir() string {
	return filepath.Join(m.root, "state")
}

// ResolveStore places relative names under StoreRoot
func (m *MockPaths) ResolveStore(name string) string {
	if strings.HasPrefix(name, "/") {
		return filepath.Clean(name)
	}
	return filepath.Join(m.StoreRoot(), name)
}

var _ paths.Paths = (*MockPaths)(nil)
