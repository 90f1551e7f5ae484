package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("knxnetipd %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
