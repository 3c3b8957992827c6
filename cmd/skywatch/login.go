package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/skywatch/internal/dashboard"
)

var loginOpts struct {
	username string
	password string
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log the backend in to NASA EarthAccess",
	Long: "Sends Earthdata credentials to the backend. Missing values are read from\n" +
		"EARTHDATA_USERNAME / EARTHDATA_PASSWORD, then prompted for.",
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the local logged-in state",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVarP(&loginOpts.username, "username", "u", "", "Earthdata username")
	loginCmd.Flags().StringVarP(&loginOpts.password, "password", "p", "", "Earthdata password")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// credentials resolves flags, then the environment. ok is false when either
// value is still missing.
func credentials(username, password string, getenv func(string) string) (string, string, bool) {
	if username == "" {
		username = getenv("EARTHDATA_USERNAME")
	}
	if password == "" {
		password = getenv("EARTHDATA_PASSWORD")
	}
	return username, password, username != "" && password != ""
}

func runLogin(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	a := setupApp(logger)
	defer a.close()

	username, password, ok := credentials(loginOpts.username, loginOpts.password, os.Getenv)
	if !ok {
		var err error
		username, password, ok, err = dashboard.RunLoginForm(username)
		if err != nil {
			return fmt.Errorf("login prompt: %w", err)
		}
		if !ok {
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	if err := a.client.Login(ctx, username, password); err != nil {
		logger.Error("login failed", "username", username, "error", err)
		a.close()
		os.Exit(1)
	}
	if err := a.session.SetLoggedIn(username); err != nil {
		return fmt.Errorf("save login state: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in to NASA EarthAccess as %s.\n", username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	a := setupApp(logger)
	defer a.close()

	if err := a.session.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}
