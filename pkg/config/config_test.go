package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/objstore/pkg/config"
	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "", cfg.Store.Root)
	assert.Equal(t, "cbor", cfg.Store.Codec)
	assert.Equal(t, "", cfg.Cache.Dir)
	assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 0, cfg.Log.Verbosity)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		env      map[string]string
		validate func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "missing file keeps defaults",
			validate: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "cbor", cfg.Store.Codec)
			},
		},
		{
			name: "file overrides defaults",
			file: `
[store]
codec = "yaml"

[cache]
dir = "/var/cache/stores"

[remote]
timeout = "5s"
`,
			validate: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "yaml", cfg.Store.Codec)
				assert.Equal(t, "/var/cache/stores", cfg.Cache.Dir)
				assert.Equal(t, 5*time.Second, cfg.Remote.Timeout)
			},
		},
		{
			name: "env overrides file",
			file: `
[cache]
dir = "/from/file"
`,
			env: map[string]string{
				"OBJSTORE_CACHE_DIR":      "/from/env",
				"OBJSTORE_LOG_VERBOSITY":  "2",
				"OBJSTORE_REMOTE_TIMEOUT": "250ms",
			},
			validate: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "/from/env", cfg.Cache.Dir)
				assert.Equal(t, 2, cfg.Log.Verbosity)
				assert.Equal(t, 250*time.Millisecond, cfg.Remote.Timeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), "config.toml")
			if tt.file != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0644))
			}

			cfg, err := config.Load(path)
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_RejectsUnknownCodec(t *testing.T) {
	t.Setenv("OBJSTORE_STORE_CODEC", "xml")

	_, err := config.Load("")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[store\ncodec="), 0644))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  codec: yaml\nremote:\n  timeout: 2s\n"), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Store.Codec)
	assert.Equal(t, 2*time.Second, cfg.Remote.Timeout)
}

func TestLoadWithOverrides(t *testing.T) {
	t.Setenv("OBJSTORE_CACHE_DIR", "/from/env")

	cfg, err := config.LoadWithOverrides("", map[string]interface{}{
		"cache.dir":      "/from/flag",
		"remote.timeout": "1m",
	})
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.Cache.Dir)
	assert.Equal(t, time.Minute, cfg.Remote.Timeout)
}
