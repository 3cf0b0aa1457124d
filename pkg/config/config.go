// Package config handles configuration for adbridge.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/devicelab-dev/adbridge/pkg/core"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the bridge configuration (config.yaml).
type Config struct {
	Server ServerConfig `yaml:"server"`
	ADB    ADBConfig    `yaml:"adb"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the HTTP control server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowShell      bool          `yaml:"allowShell"`  // Enables /run-command
	CORSOrigins     []string      `yaml:"corsOrigins"` // Allowed origins, "*" for any
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// ADBConfig configures how adb is invoked.
type ADBConfig struct {
	Path           string        `yaml:"path"`          // Empty means look up adb in PATH
	DefaultDevice  string        `yaml:"defaultDevice"` // Used when a request names no device
	CommandTimeout time.Duration `yaml:"commandTimeout"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Env   string `yaml:"env"`   // dev or prod
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":9744",
			AllowShell:      true,
			CORSOrigins:     []string{"*"},
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		ADB: ADBConfig{
			CommandTimeout: 60 * time.Second,
		},
		Log: LogConfig{
			Env:   "dev",
			Level: "info",
		},
	}
}

// Load loads configuration from a file. Fields the file leaves out keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, core.ErrInvalidConfig.
			WithMessage(fmt.Sprintf("invalid config file %s", path)).
			WithCause(err)
	}

	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return defaults
	return Default(), nil
}

// LoadDotEnv loads a .env file into the process environment. A missing
// file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return core.ErrInvalidConfig.WithMessage("invalid .env file").WithCause(err)
	}
	return nil
}

// ApplyEnv overlays ADBRIDGE_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	c.Server.Addr = env("ADBRIDGE_ADDR", c.Server.Addr)
	if v := os.Getenv("ADBRIDGE_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	c.ADB.Path = env("ADBRIDGE_ADB_PATH", c.ADB.Path)
	c.ADB.DefaultDevice = env("ADBRIDGE_DEVICE", c.ADB.DefaultDevice)
	c.Log.Env = env("ADBRIDGE_ENV", c.Log.Env)
	c.Log.Level = env("ADBRIDGE_LOG_LEVEL", c.Log.Level)
	c.Log.File = env("ADBRIDGE_LOG_FILE", c.Log.File)

	var err error
	if c.Server.AllowShell, err = envBool("ADBRIDGE_ALLOW_SHELL", c.Server.AllowShell); err != nil {
		return err
	}
	if c.ADB.CommandTimeout, err = envDuration("ADBRIDGE_COMMAND_TIMEOUT", c.ADB.CommandTimeout); err != nil {
		return err
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return core.ErrInvalidConfig.WithMessage("server.addr is required")
	}
	if c.ADB.CommandTimeout < 0 {
		return core.ErrInvalidConfig.WithMessage("adb.commandTimeout must not be negative")
	}
	for name, d := range map[string]time.Duration{
		"server.readTimeout":     c.Server.ReadTimeout,
		"server.writeTimeout":    c.Server.WriteTimeout,
		"server.shutdownTimeout": c.Server.ShutdownTimeout,
	} {
		if d < 0 {
			return core.ErrInvalidConfig.WithMessage(name + " must not be negative")
		}
	}
	switch c.Log.Env {
	case "", "dev", "prod":
	default:
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("log.env must be dev or prod, got %q", c.Log.Env))
	}
	return nil
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return false, core.Invalid(key, v, err)
	}
	return b, nil
}

func envDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, core.Invalid(key, v, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
