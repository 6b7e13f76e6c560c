package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete taskward configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Guard    GuardConfig    `mapstructure:"guard"`
	Shield   ShieldConfig   `mapstructure:"shield"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	// Path is the database file; empty means the per-user default.
	Path string `mapstructure:"path"`
}

// GuardConfig controls the parent-passcode lockout policy.
type GuardConfig struct {
	// MaxAttempts is the number of consecutive failures before lockout.
	MaxAttempts int `mapstructure:"max_attempts"`
	// LockoutMinutes is how long verification is refused after lockout.
	LockoutMinutes int `mapstructure:"lockout_minutes"`
}

// LockoutDuration converts the configured lockout minutes.
func (g GuardConfig) LockoutDuration() time.Duration {
	return time.Duration(g.LockoutMinutes) * time.Minute
}

// ShieldConfig controls the app-restriction collaborator.
type ShieldConfig struct {
	// Authorized mirrors the platform authorization grant. When false the
	// shield degrades to a logged no-op.
	Authorized bool `mapstructure:"authorized"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
}

// Load reads configuration with defaults, an optional config file, and
// TASKWARD_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.path", "")
	v.SetDefault("guard.max_attempts", 5)
	v.SetDefault("guard.lockout_minutes", 5)
	v.SetDefault("shield.authorized", true)
	v.SetDefault("logging.level", "info")

	v.SetEnvPrefix("TASKWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "taskward"))
		}
		// Missing default config is fine; defaults apply.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Guard.MaxAttempts < 1 {
		return nil, fmt.Errorf("guard.max_attempts must be at least 1, got %d", cfg.Guard.MaxAttempts)
	}
	if cfg.Guard.LockoutMinutes < 1 {
		return nil, fmt.Errorf("guard.lockout_minutes must be at least 1, got %d", cfg.Guard.LockoutMinutes)
	}
	return &cfg, nil
}
