// Package config provides centralized configuration for TaskNest.
// All default values should be defined here to ensure a single source of truth.
package config

import (
	"github.com/spf13/viper"

	"github.com/josephgoksu/tasknest/store"
)

const (
	// ConfigName is the config file base name (.tasknest.yaml).
	ConfigName = ".tasknest"

	// EnvPrefix prefixes environment overrides, e.g. TASKNEST_STORE_BACKEND.
	EnvPrefix = "TASKNEST"

	// LocalDir is the per-directory TaskNest folder searched for config and data.
	LocalDir = ".tasknest"
)

// Defaults for the store and logging.
const (
	DefaultBackend   = store.BackendFile
	DefaultWatch     = true
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", DefaultBackend)
	v.SetDefault("store.dir", "")
	v.SetDefault("store.watch", DefaultWatch)
	v.SetDefault("store.debounce", store.DefaultDebounce)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("project", "")
}
