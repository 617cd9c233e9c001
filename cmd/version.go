package cmd

import (
	"fmt"

	"github.com/anoixa/dicom-portal/config"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		info := config.VersionInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "dicom-portal %s (commit %s, built %s)\n", info["version"], info["commit"], info["built"])
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
