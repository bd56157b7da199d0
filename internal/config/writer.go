package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// settableKeys are the keys `tasknest config set` accepts.
var settableKeys = map[string]bool{
	"store.backend":  true,
	"store.dir":      true,
	"store.watch":    true,
	"store.debounce": true,
	"log.level":      true,
	"log.format":     true,
	"project":        true,
}

// IsSettable reports whether key may be written with SaveSetting.
func IsSettable(key string) bool {
	return settableKeys[key]
}

// SaveSetting writes key=value to the config file in use. Without one, a
// new ~/.tasknest.yaml is created. The updated config is validated before
// anything is written.
func SaveSetting(v *viper.Viper, key, value string) (string, error) {
	if !IsSettable(key) {
		return "", fmt.Errorf("unknown config key %q", key)
	}

	path := v.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, ConfigName+".yaml")
	}

	// Write through a fresh viper so env and flag overrides are not persisted.
	fileV := viper.New()
	fileV.SetConfigFile(path)
	fileV.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := fileV.ReadInConfig(); err != nil {
			return "", fmt.Errorf("read config %s: %w", path, err)
		}
	}
	fileV.Set(key, value)

	check := viper.New()
	SetDefaults(check)
	if err := check.MergeConfigMap(fileV.AllSettings()); err != nil {
		return "", err
	}
	if _, err := Load(check); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := fileV.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write config %s: %w", path, err)
	}
	v.Set(key, value)
	return path, nil
}
