package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		storeRoot string
		envSetup  map[string]string
		validate  func(t *testing.T, p Paths)
	}{
		{
			name:      "explicit store root",
			storeRoot: "/tmp/stores",
			validate: func(t *testing.T, p Paths) {
				assert.Equal(t, "/tmp/stores", p.StoreRoot())
			},
		},
		{
			name: "from OBJSTORE_ROOT env",
			envSetup: map[string]string{
				EnvStoreRoot: "/env/stores",
			},
			validate: func(t *testing.T, p Paths) {
				assert.Equal(t, "/env/stores", p.StoreRoot())
			},
		},
		{
			name: "working directory fallback",
			validate: func(t *testing.T, p Paths) {
				cwd, err := os.Getwd()
				require.NoError(t, err)
				assert.Equal(t, cwd, p.StoreRoot())
			},
		},
		{
			name:      "expand tilde in explicit path",
			storeRoot: "~/stores",
			validate: func(t *testing.T, p Paths) {
				homeDir, _ := os.UserHomeDir()
				assert.Equal(t, filepath.Join(homeDir, "stores"), p.StoreRoot())
			},
		},
		{
			name: "custom directories",
			envSetup: map[string]string{
				EnvConfigDir:     "/custom/config",
				EnvCacheDir:      "/custom/cache",
				"XDG_STATE_HOME": "/custom/state",
			},
			validate: func(t *testing.T, p Paths) {
				assert.Equal(t, "/custom/config", p.ConfigDir())
				assert.Equal(t, "/custom/config/config.toml", p.ConfigFile())
				assert.Equal(t, "/custom/cache", p.CacheDir())
				assert.Equal(t, "/custom/state/objstore", p.StateDir())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvStoreRoot, "")
			for k, v := range tt.envSetup {
				t.Setenv(k, v)
			}

			p, err := New(tt.storeRoot)
			require.NoError(t, err)
			tt.validate(t, p)
		})
	}
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv(EnvCacheDir, "/ignored")
	assert.Equal(t, filepath.Join(xdg.CacheHome, "objstore"), DefaultCacheDir())
}

func TestResolveStore(t *testing.T) {
	p, err := New("/data")
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir()

	assert.Equal(t, "/data/run1", p.ResolveStore("run1"))
	assert.Equal(t, "/data/a/b", p.ResolveStore("a/./b"))
	assert.Equal(t, "/abs/run", p.ResolveStore("/abs/run/"))
	assert.Equal(t, filepath.Join(homeDir, "runs"), p.ResolveStore("~/runs"))
}
