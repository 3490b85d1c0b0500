package cmd

import (
	"fmt"

	"github.com/kebairia/mirrorctl/internal/operations"
	"github.com/spf13/cobra"
)

var timingsSource string

var timingsCmd = &cobra.Command{
	Use:   "timings",
	Short: "Show phase durations for the last ten backup attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := operations.NewOperator(ConfigFile)
		if err != nil {
			return err
		}
		entries, err := op.Timings(timingsSource)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no recorded attempts")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %s -> %s\n", e.When.Format("2006-01-02 15:04:05"), e.Source, e.Dest)
			fmt.Printf("  count: %s  copy: %s  verify: %s\n", e.CountDur, e.CopyDur, e.VerifyDur)
			fmt.Printf("  flags: %s\n", e.Flags)
			fmt.Printf("  status: %s\n", e.Status)
		}
		return nil
	},
}

func init() {
	timingsCmd.Flags().StringVar(&timingsSource, "source", "", "source drive root holding the log")
	timingsCmd.MarkFlagRequired("source")
}
