package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GetGlobalConfigDir returns the path to the global TaskNest directory (~/.tasknest).
// It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, LocalDir), nil
}

// GetStoreDir returns the directory the key-value store lives in.
// Resolution order (first match wins):
// 1. Explicit config via "store.dir" (Viper/env/flag)
// 2. Local directory: .tasknest/data (if exists)
// 3. XDG_DATA_HOME/tasknest (if XDG_DATA_HOME is set)
// 4. Global fallback: ~/.tasknest/data
func GetStoreDir(v *viper.Viper) string {
	if path := v.GetString("store.dir"); path != "" {
		return path
	}

	localData := filepath.Join(LocalDir, "data")
	if info, err := os.Stat(localData); err == nil && info.IsDir() {
		return localData
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "tasknest")
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return filepath.Join(LocalDir, "data")
	}
	return filepath.Join(dir, "data")
}

// ConfigSearchPaths lists the directories searched for .tasknest.yaml, in order.
func ConfigSearchPaths() []string {
	paths := []string{LocalDir}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	return append(paths, ".")
}
