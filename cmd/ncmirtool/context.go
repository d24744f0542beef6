package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ncmirtools/internal/config"
	"ncmirtools/internal/logging"
)

type commandContext struct {
	configFlag *string
	homeFlag   *string
	logFlag    *string

	configOnce sync.Once
	config     *config.Config
	loaded     []string
	configErr  error
}

func newCommandContext(configFlag, homeFlag, logFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		homeFlag:   homeFlag,
		logFlag:    logFlag,
	}
}

func (c *commandContext) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		Path:    flagValue(c.configFlag),
		HomeDir: flagValue(c.homeFlag),
	}
}

// ensureConfig loads configuration once. Commands decide how a load failure
// maps to their exit code.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, loaded, err := config.Load(c.loadOptions())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.loaded = loaded
	})
	return c.config, c.configErr
}

// logger builds a logger writing to the command's stderr. The [logging]
// section applies when configuration loaded; --log overrides the level either
// way. Packages tag their own component and run id.
func (c *commandContext) logger(cmd *cobra.Command) *slog.Logger {
	opts := logging.Options{Level: "warn", Format: "console"}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
		opts.File = cfg.Logging.File
		opts.MaxSizeMB = cfg.Logging.MaxSizeMB
		opts.MaxBackups = cfg.Logging.MaxBackups
	}
	if level := flagValue(c.logFlag); level != "" {
		opts.Level = level
	}
	opts.Writer = cmd.ErrOrStderr()

	logger, err := logging.New(opts)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "logging disabled: %v\n", err)
		return logging.NewNop()
	}
	return logger
}

func flagValue(flag *string) string {
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(*flag)
}
