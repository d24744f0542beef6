package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ncmirtools/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return &exitError{code: exitUsage, err: fmt.Errorf("load config: %w", err)}
			}
			out := cmd.OutOrStdout()
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
				fmt.Fprintln(out, "ntfy_topic not configured in [notifications]; nothing to send")
				return nil
			}
			if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
				return &exitError{code: 1, err: fmt.Errorf("send test notification: %w", err)}
			}
			fmt.Fprintln(out, "Test notification sent")
			return nil
		},
	}
}
