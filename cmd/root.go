package cmd

import (
	"os"

	"github.com/anoixa/dicom-portal/config"
	"github.com/anoixa/dicom-portal/utils/logger"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dicom-portal",
	Short: "Telemedicine portal for DICOM studies",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.InitConfig()
		cfg := config.Get()
		logger.Setup(cfg.LogLevel, cfg.LogPretty)
	},
	Run: func(cmd *cobra.Command, args []string) {
		serveCmd.Run(cmd, args)
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
