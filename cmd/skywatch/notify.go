package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/skywatch/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a sample job outcome through the configured notifier.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	a := setupApp(logger)
	defer a.close()

	if err := notifier.SendTestMessage(a.notifier); err != nil {
		logger.Error("test notification failed", "error", err)
		a.close()
		os.Exit(1)
	}
	logger.Info("test notification sent successfully")
	return nil
}
