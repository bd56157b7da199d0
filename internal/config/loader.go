package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/josephgoksu/tasknest/types"
)

var validate = validator.New()

// Init wires the config sources into v: .env, TASKNEST_* environment
// variables, defaults and the config file. cfgFile overrides the search.
// A missing config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	// It's okay if .env doesn't exist.
	_ = godotenv.Load()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		for _, p := range ConfigSearchPaths() {
			v.AddConfigPath(p)
		}
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			slog.Debug("no config file found, using defaults and environment")
			return nil
		}
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	slog.Debug("using config file", "path", v.ConfigFileUsed())
	return nil
}

// Load unmarshals and validates the configuration held by v. An empty
// store.dir is resolved with GetStoreDir.
func Load(v *viper.Viper) (types.AppConfig, error) {
	var cfg types.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return types.AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = GetStoreDir(v)
	}
	if err := Validate(cfg); err != nil {
		return types.AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks cfg against its validation tags.
func Validate(cfg types.AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
