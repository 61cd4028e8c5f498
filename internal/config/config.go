package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/unitctl/internal/logger"
	"github.com/loykin/unitctl/internal/process"
)

// EnvPrefix prefixes every environment override (UNITCTL_RUN_DIR, UNITCTL_LOG_LEVEL, ...).
const EnvPrefix = "UNITCTL"

var ErrInvalidConfig = errors.New("invalid config")

// Config is the decoded unitctl configuration.
type Config struct {
	UnitsDir     string        `toml:"units_dir" mapstructure:"units_dir"`
	RunDir       string        `toml:"run_dir" mapstructure:"run_dir"`
	StateFile    string        `toml:"state_file" mapstructure:"state_file"`
	BootMarker   string        `toml:"boot_marker" mapstructure:"boot_marker"`
	RootUnit     string        `toml:"root_unit" mapstructure:"root_unit"`
	ExecMode     string        `toml:"exec_mode" mapstructure:"exec_mode"`
	StopTimeout  time.Duration `toml:"stop_timeout" mapstructure:"stop_timeout"`
	PollInterval time.Duration `toml:"poll_interval" mapstructure:"poll_interval"`
	Editor       string        `toml:"editor" mapstructure:"editor"`
	UnitLogDir   string        `toml:"unit_log_dir" mapstructure:"unit_log_dir"`
	Log          LogConfig     `toml:"log" mapstructure:"log"`
	History      HistoryConfig `toml:"history" mapstructure:"history"`
	Metrics      MetricsConfig `toml:"metrics" mapstructure:"metrics"`
}

type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	File       string `toml:"file" mapstructure:"file"`
	Color      bool   `toml:"color" mapstructure:"color"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// HistoryConfig selects the lifecycle event sink. An empty DSN disables it.
type HistoryConfig struct {
	DSN   string `toml:"dsn" mapstructure:"dsn"`
	Table string `toml:"table" mapstructure:"table"`
}

// MetricsConfig names the node-exporter textfile counters are written to.
// An empty path disables metrics.
type MetricsConfig struct {
	Textfile string `toml:"textfile" mapstructure:"textfile"`
}

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}

// SetDefaults registers every key with its default so environment
// overrides are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	home := homeDir()
	stateDir := filepath.Join(home, ".local", "state", "unitctl")
	v.SetDefault("units_dir", filepath.Join(home, ".config", "unitctl", "units"))
	v.SetDefault("run_dir", filepath.Join(stateDir, "run"))
	v.SetDefault("state_file", filepath.Join(stateDir, "state.index"))
	v.SetDefault("boot_marker", "/run/unitctl.core.once")
	v.SetDefault("root_unit", "rootinit")
	v.SetDefault("exec_mode", process.ExecModeShell)
	v.SetDefault("stop_timeout", process.DefaultStopTimeout)
	v.SetDefault("poll_interval", process.DefaultPollInterval)
	v.SetDefault("editor", "nano")
	v.SetDefault("unit_log_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(stateDir, "unitctl.log"))
	v.SetDefault("log.color", true)
	v.SetDefault("log.max_size_mb", logger.DefaultMaxSizeMB)
	v.SetDefault("log.max_backups", logger.DefaultMaxBackups)
	v.SetDefault("log.max_age_days", logger.DefaultMaxAgeDays)
	v.SetDefault("log.compress", false)
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.table", "")
	v.SetDefault("metrics.textfile", "")
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// UNITCTL_EDITOR wins over the conventional EDITOR
	_ = v.BindEnv("editor", EnvPrefix+"_EDITOR", "EDITOR")
	return v
}

// Load reads the optional TOML file at path into v and decodes the result.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = New()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values no command could work with.
func (c Config) Validate() error {
	if _, err := process.LauncherFor(c.ExecMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.StopTimeout <= 0 {
		return fmt.Errorf("%w: stop_timeout must be positive, got %s", ErrInvalidConfig, c.StopTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive, got %s", ErrInvalidConfig, c.PollInterval)
	}
	if c.UnitsDir == "" || c.RunDir == "" {
		return fmt.Errorf("%w: units_dir and run_dir are required", ErrInvalidConfig)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LoggerConfig maps the log section onto the logger package.
func (c Config) LoggerConfig() logger.Config {
	return logger.Config{
		Slog: logger.SlogConfig{
			Level: logger.Level(strings.ToLower(c.Log.Level)),
			Color: c.Log.Color,
		},
		File: logger.FileConfig{
			Path:       c.Log.File,
			Dir:        c.UnitLogDir,
			MaxSizeMB:  c.Log.MaxSizeMB,
			MaxBackups: c.Log.MaxBackups,
			MaxAgeDays: c.Log.MaxAgeDays,
			Compress:   c.Log.Compress,
		},
	}
}
