// Package cli provides the command-line interface for adbridge.
package cli

import (
	"fmt"
	"os"

	"github.com/devicelab-dev/adbridge/pkg/config"
	"github.com/devicelab-dev/adbridge/pkg/device"
	"github.com/devicelab-dev/adbridge/pkg/logger"
	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

const configKey = "config"

// newBridge opens the adb bridge; tests replace it.
var newBridge = func(cfg *config.Config) (*device.Bridge, error) {
	b, err := device.NewBridge(cfg.ADB.Path)
	if err != nil {
		return nil, err
	}
	b.SetTimeout(cfg.ADB.CommandTimeout)
	return b, nil
}

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml (default: $ADBRIDGE_HOME/config.yaml)",
		EnvVars: []string{"ADBRIDGE_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"s"},
		Usage:   "Device serial to use",
	},
	&cli.StringFlag{
		Name:  "adb",
		Usage: "Path to the adb binary",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable verbose logging",
		EnvVars: []string{"ADBRIDGE_VERBOSE"},
	},
	&cli.StringFlag{
		Name:  "log-file",
		Usage: "Also write logs to this file",
	},
}

// NewApp builds the adbridge command tree.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "adbridge",
		Usage:   "HTTP bridge and UI inspector for Android devices",
		Version: Version,
		Description: `adbridge drives Android devices through adb and locates UI elements
in window hierarchy snapshots, by screen coordinate or by XPath.

Examples:
  adbridge serve --addr :9744
  adbridge devices --long
  adbridge hierarchy --output window.xml
  adbridge find-node --x 540 --y 1200
  adbridge find-node --xpath "//node[@text='Login']" --file window.xml`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			serveCommand,
			devicesCommand,
			hierarchyCommand,
			findNodeCommand,
		},
		Before: setup,
		After: func(c *cli.Context) error {
			logger.Close()
			return nil
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup resolves the configuration and initializes logging. Precedence,
// lowest first: defaults, config file, .env and ADBRIDGE_* variables, flags.
func setup(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	if v := c.String("device"); v != "" {
		cfg.ADB.DefaultDevice = v
	}
	if v := c.String("adb"); v != "" {
		cfg.ADB.Path = v
	}
	if v := c.String("log-file"); v != "" {
		cfg.Log.File = v
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(logger.Options{Env: cfg.Log.Env, Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg
	logger.Debug("adb %q, default device %q, command timeout %s", cfg.ADB.Path, cfg.ADB.DefaultDevice, cfg.ADB.CommandTimeout)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromDir(config.ConfigDir())
}

// configFrom returns the configuration resolved by setup.
func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}
