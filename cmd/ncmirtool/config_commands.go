package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ncmirtools/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				files, err := ctx.loadOptions().Files()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = files[len(files)-1]
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the sections for the tools you use; passwords may instead come from NCMIR_CIL_PASSWORD and NCMIR_DB_PASSWORD.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file (default <homedir>/.ncmirtools.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show resolved configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return &exitError{code: exitUsage, err: fmt.Errorf("load config: %w", err)}
			}
			out := cmd.OutOrStdout()
			status := newStatusPrinter(out)

			status.header("Files")
			for _, path := range ctx.loaded {
				fmt.Fprintf(out, "  %s\n", path)
			}
			fmt.Fprintln(out)

			status.header("Sections")
			for _, check := range sectionChecks(cfg) {
				kind, message := statusOK, ""
				if check.err != nil {
					kind, message = statusWarn, check.err.Error()
				}
				status.check(check.section, kind, message)
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, renderSettingsTable(settingRows(cfg)))
			return nil
		},
	}
}

type sectionCheck struct {
	section string
	err     error
}

func sectionChecks(cfg *config.Config) []sectionCheck {
	_, dataErr := cfg.DataServerSettings()
	if dataErr == nil {
		_, _, dataErr = cfg.TransferLogPaths()
	}
	_, sftpErr := cfg.SFTPSettings()
	_, dbErr := cfg.DatabaseSettings()
	var cilErr error
	if !cfg.HasSection(config.SectionCIL) {
		cilErr = &config.MissingOptionError{Section: config.SectionCIL}
	}
	return []sectionCheck{
		{section: config.SectionDataServer, err: dataErr},
		{section: config.SectionSFTP, err: sftpErr},
		{section: config.SectionCIL, err: cilErr},
		{section: config.SectionDatabase, err: dbErr},
		{section: "logging", err: cfg.ValidateLogging()},
	}
}

func settingRows(cfg *config.Config) []settingRow {
	ledgerPath, lockPath, _ := cfg.TransferLogPaths()
	return []settingRow{
		{"dataserver", "datadir", cfg.DataServer.DataDir},
		{"dataserver", "imagesuffix", cfg.DataServer.ImageSuffix},
		{"dataserver", "dirstoexclude", strings.Join(cfg.DataServer.DirsToExclude, ", ")},
		{"dataserver", "transferlog", ledgerPath},
		{"dataserver", "lockfile", lockPath},
		{"dataserver", "lock_timeout", cfg.LockTimeout().String()},
		{"sftp", "host", cfg.SFTP.Host},
		{"sftp", "user", cfg.SFTP.User},
		{"sftp", "port", strconv.Itoa(cfg.SFTP.Port)},
		{"sftp", "private_key", cfg.SFTP.PrivateKey},
		{"sftp", "private_key_passphrase", mask(cfg.SFTP.PrivateKeyPassphrase)},
		{"sftp", "connect_timeout", cfg.SFTP.ConnectTimeoutDuration().String()},
		{"sftp", "dest_dir", cfg.SFTP.DestDir},
		{"sftp", "known_hosts", cfg.SFTP.KnownHosts},
		{"cil", "resturl", cfg.CIL.RestURL},
		{"cil", "restuser", cfg.CIL.RestUser},
		{"cil", "restpassword", mask(cfg.CIL.RestPassword)},
		{"database", "driver", cfg.Database.Driver},
		{"database", "host", cfg.Database.Host},
		{"database", "port", strconv.Itoa(cfg.Database.Port)},
		{"database", "user", cfg.Database.User},
		{"database", "password", mask(cfg.Database.Password)},
		{"database", "name", cfg.Database.Name},
		{"database", "path", cfg.Database.Path},
		{"lookup", "prefixdir", cfg.Lookup.PrefixDir},
		{"logging", "level", cfg.Logging.Level},
		{"logging", "format", cfg.Logging.Format},
		{"logging", "file", cfg.Logging.File},
		{"metrics", "textfile", cfg.Metrics.Textfile},
		{"notifications", "ntfy_topic", cfg.Notifications.NtfyTopic},
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
