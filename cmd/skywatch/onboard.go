package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/skywatch/internal/dashboard"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Show the introduction slides again",
	Args:  cobra.NoArgs,
	RunE:  runOnboard,
}

var resetAll bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset onboarding and the profile (--all clears every local key)",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "also clear login state and stored results")
	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(resetCmd)
}

func runOnboard(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	a := setupApp(logger)
	defer a.close()

	finished, err := dashboard.RunOnboarding()
	if err != nil {
		return fmt.Errorf("onboarding: %w", err)
	}
	if !finished {
		return nil
	}
	if err := a.session.SetOnboarded(true); err != nil {
		return fmt.Errorf("save onboarding state: %w", err)
	}
	if a.readSession().Profile == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Next: create your profile with `skywatch profile set --name ... --activities ...`.")
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	a := setupApp(logger)
	defer a.close()

	if resetAll {
		if err := a.session.Clear(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All local data cleared.")
		return nil
	}
	if err := a.session.ResetOnboarding(); err != nil {
		return fmt.Errorf("reset onboarding: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Onboarding and profile reset.")
	return nil
}
