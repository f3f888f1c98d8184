package config

import (
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	storeerrors "github.com/arthur-debert/objstore/pkg/errors"
)

// EnvPrefix is the prefix of environment variables mapped onto the
// configuration. OBJSTORE_CACHE_DIR becomes cache.dir.
const EnvPrefix = "OBJSTORE_"

//go:embed embedded/defaults.toml
var defaultConfig []byte

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Config is the fully merged objstore configuration.
type Config struct {
	Store  Store  `koanf:"store"`
	Cache  Cache  `koanf:"cache"`
	Remote Remote `koanf:"remote"`
	Log    Log    `koanf:"log"`
}

// Store controls how store names and objects are handled.
type Store struct {
	Root  string `koanf:"root"`
	Codec string `koanf:"codec"`
}

// Cache controls cached reads of remote stores.
type Cache struct {
	Dir string `koanf:"dir"`
}

// Remote controls http(s) backends.
type Remote struct {
	Timeout time.Duration `koanf:"timeout"`
}

// Log controls logger verbosity when no -v flag is given.
type Log struct {
	Verbosity int `koanf:"verbosity"`
}

// Default returns the embedded defaults without consulting files or the
// environment.
func Default() *Config {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		panic("embedded defaults.toml is invalid: " + err.Error())
	}
	cfg, err := unmarshal(k)
	if err != nil {
		panic("embedded defaults.toml does not decode: " + err.Error())
	}
	return cfg
}

// Load merges, in order: embedded defaults, the config file at path
// (skipped when empty or missing) and OBJSTORE_* environment variables.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides is Load with a final layer of dotted keys, such as
// command line flags ({"cache.dir": "/tmp/c"}).
//
// Files ending in .yaml or .yml are parsed as YAML, anything else as TOML.
func LoadWithOverrides(path string, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")

	// 1. System defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, storeerrors.Wrap(err, storeerrors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. User config file
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
				return nil, storeerrors.Wrapf(err, storeerrors.ErrConfigLoad, "failed to load config from %s", path)
			}
		}
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, storeerrors.Wrap(err, storeerrors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Explicit overrides
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, storeerrors.Wrap(err, storeerrors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	return unmarshal(k)
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, storeerrors.Wrap(err, storeerrors.ErrConfigLoad, "failed to unmarshal configuration")
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Store.Codec {
	case "cbor", "yaml":
	default:
		return storeerrors.Newf(storeerrors.ErrConfigLoad, "unknown codec %q", cfg.Store.Codec)
	}
	if cfg.Remote.Timeout < 0 {
		return storeerrors.Newf(storeerrors.ErrConfigLoad, "remote timeout must not be negative, got %s", cfg.Remote.Timeout)
	}
	return nil
}
