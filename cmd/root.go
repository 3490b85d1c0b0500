package cmd

import (
	"os"

	"github.com/kebairia/mirrorctl/internal/logger"
	"github.com/spf13/cobra"
)

// ConfigFile is the path to the YAML configuration.
var (
	ConfigFile string
	// rootCmd is the base command for mirrorctl.
	rootCmd = &cobra.Command{
		Use:   "mirrorctl",
		Short: "Full-drive mirror backups through an external mirroring engine",
		Long: `mirrorctl drives a robocopy-compatible mirroring engine to keep an
exact copy of a source drive on a backup drive, and keeps a per-destination
backup history and a rolling timing log on the source.`,
	}
)

// Execute runs the root command.
func Execute() {
	log, err := logger.Init()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().
		StringVarP(&ConfigFile, "config", "c", "./configs/config.yaml", "path to YAML config file")
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(timingsCmd)
}
