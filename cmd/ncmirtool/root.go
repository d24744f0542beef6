package main

import (
	"github.com/spf13/cobra"

	"ncmirtools/internal/logging"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var homeFlag string
	var logFlag string

	ctx := newCommandContext(&configFlag, &homeFlag, &logFlag)

	rootCmd := &cobra.Command{
		Use:           "ncmirtool",
		Short:         "NCMIR data transfer and lookup tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(logging.WithRunID(cmd.Context(), ""))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path (disables the /etc and home directory search)")
	flags.StringVar(&homeFlag, "homedir", "", "Alternate home directory holding .ncmirtools.toml (default ~)")
	flags.StringVar(&logFlag, "log", "", "Log level override: debug, info, warn, error")

	rootCmd.AddCommand(newImageToKioskCommand(ctx))
	rootCmd.AddCommand(newCILUploadCommand(ctx))
	rootCmd.AddCommand(newMPIDirCommand(ctx))
	rootCmd.AddCommand(newProjectDirCommand(ctx))
	rootCmd.AddCommand(newProjectSearchCommand(ctx))
	rootCmd.AddCommand(newMPIDInfoCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newPreflightCommand(ctx))

	return rootCmd
}
