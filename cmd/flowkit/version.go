package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowkit"
	"github.com/aretw0/flowkit/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flowkit",
	Run: func(cmd *cobra.Command, args []string) {
		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(cmd.OutOrStdout())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "flowkit version %s\n", flowkit.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
