package main

import (
	"github.com/spf13/cobra"

	"ncmirtools/internal/kiosk"
)

const kioskHelpHint = "Please run ncmirtool imagetokiosk --help for more information."

func newImageToKioskCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "imagetokiosk <run|dryrun>",
		Short: "Send the second youngest instrument image to the kiosk server",
		Long: `Searches the [dataserver] datadir for files ending in imagesuffix and
uploads the second youngest one over SFTP to [sftp] dest_dir. The newest file
is skipped because the instrument may still be writing it. The path of each
transferred file is written to transferlog so it is not sent twice.

In dryrun mode the connection is tested but nothing is transferred and the
transfer log is left untouched.

Exit codes:
  0  transferred, nothing to transfer, already transferred, or dryrun
  1  transfer failed
  2  configuration missing or lacks a [dataserver] section
  3  file search could not be set up
  4  transport could not be set up
  5  another run holds the lock`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(kiosk.ModeRun), string(kiosk.ModeDryRun)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := ctx.ensureConfig()
			code := kiosk.Run(cmd.Context(), kiosk.Params{
				Mode:      kiosk.Mode(args[0]),
				Config:    cfg,
				ConfigErr: cfgErr,
				HelpHint:  kioskHelpHint,
				Stdout:    cmd.OutOrStdout(),
				Stderr:    cmd.ErrOrStderr(),
				Logger:    ctx.logger(cmd),
			})
			return exitCode(code)
		},
	}
}
