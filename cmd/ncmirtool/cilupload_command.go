package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ncmirtools/internal/cil"
	"ncmirtools/internal/logging"
	"ncmirtools/internal/notifications"
	"ncmirtools/internal/transport"
)

func newCILUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cilupload <file>",
		Short: "Upload a file to the Cell Image Library and register it",
		Long: `Transfers <file> over SFTP to [sftp] dest_dir and registers the remote copy
with the REST service in [cil]. A report of the outcome is printed to
standard output.

Exit codes:
  0  upload and registration succeeded
  1  upload or registration failed
  2  configuration could not be loaded`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			logger := ctx.logger(cmd)

			var tr transport.Transport
			if sftpTransport, err := transport.NewSFTPFromConfig(cfg, logger); err != nil {
				logging.WarnWithContext(logger, "sftp transport unavailable", "cil_transport_config",
					"configure the [sftp] section", logging.Error(err))
			} else {
				tr = sftpTransport
			}

			uploader := cil.New(tr, cfg.CILSettings(), logger)
			result := uploader.UploadAndRegister(cmd.Context(), args[0], nil)
			if err := result.Report(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			notifier := notifications.NewService(cfg)
			if result.Success {
				err = notifier.NotifyUploadRegistered(cmd.Context(), args[0], result.ID)
			} else {
				err = notifier.NotifyUploadFailed(cmd.Context(), args[0], result.ErrorMessage)
			}
			if err != nil {
				logging.WarnWithContext(logger, "unable to send notification", "notification_failed",
					"check the [notifications] ntfy_topic", logging.Error(err))
			}

			if !result.Success {
				return exitCode(1)
			}
			return nil
		},
	}
}
