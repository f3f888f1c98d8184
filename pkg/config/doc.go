// Package config handles configuration management for objstore.
// It layers the embedded defaults, an optional TOML or YAML file,
// OBJSTORE_* environment variables and explicit overrides with koanf.
package config
