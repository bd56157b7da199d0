/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

import "time"

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose bool        `mapstructure:"verbose"`
	Config  string      `mapstructure:"config"`
	Project string      `mapstructure:"project"` // default project id for task commands
	Store   StoreConfig `mapstructure:"store" validate:"required"`
	Log     LogConfig   `mapstructure:"log"`
}

// StoreConfig selects and tunes the key-value store backend
type StoreConfig struct {
	Backend  string        `mapstructure:"backend" validate:"required,oneof=file sqlite memory"`
	Dir      string        `mapstructure:"dir" validate:"required_unless=Backend memory"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce" validate:"gte=0"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json logfmt"`
}
