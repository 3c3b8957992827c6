package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the skywatch client version",
	Long: "Print the skywatch client version, the commit it was built from and the Go\n" +
		"toolchain and platform. Use --short for the bare version string.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString(versionShort))
	},
}

func versionString(short bool) string {
	if short {
		return version
	}
	return fmt.Sprintf("skywatch %s (commit %s, %s %s/%s)",
		version, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version")
	rootCmd.AddCommand(versionCmd)
}
