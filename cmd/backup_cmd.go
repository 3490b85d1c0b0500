package cmd

import (
	"fmt"

	"github.com/kebairia/mirrorctl/internal/operations"
	"github.com/spf13/cobra"
)

var (
	backupSource string
	backupDest   string
	backupLabel  string
	backupMode   string
	backupVerify string
	backupYes    bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Mirror the source drive onto the backup drive",
	Long: `backup invokes the mirroring engine to make the destination an exact
copy of the source, including deletions, then optionally verifies the result
with a read-only comparison pass. The attempt is recorded in the history
ledger and the timing log on the source drive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := operations.NewOperator(ConfigFile)
		if err != nil {
			return err
		}
		req := operations.Request{
			SourceRoot:   backupSource,
			DestRoot:     backupDest,
			DestLabel:    backupLabel,
			OutputMode:   backupMode,
			Verify:       backupVerify,
			VerifyAnswer: backupYes,
			Confirmed:    backupYes,
		}
		attempt, err := op.RunBackup(req)
		if err != nil {
			return err
		}
		fmt.Printf("status: %s\n", attempt.Status)
		fmt.Printf("verification: %s\n", attempt.Verification)
		fmt.Printf("report: %s\n", attempt.ReportPath)
		return nil
	},
}

func init() {
	backupCmd.Flags().StringVar(&backupSource, "source", "", "source drive root")
	backupCmd.Flags().StringVar(&backupDest, "dest", "", "destination drive root")
	backupCmd.Flags().StringVar(&backupLabel, "label", "", "destination volume label (must start with BACKUP)")
	backupCmd.Flags().StringVar(&backupMode, "mode", "", "output mode: silent, echo or progress (default from config)")
	backupCmd.Flags().StringVar(&backupVerify, "verify", "", "verification policy: always, never or ask (default from config)")
	backupCmd.Flags().BoolVarP(&backupYes, "yes", "y", false, "confirm the run (and answer yes when verify is ask)")
	backupCmd.MarkFlagRequired("source")
	backupCmd.MarkFlagRequired("dest")
	backupCmd.MarkFlagRequired("label")
}
