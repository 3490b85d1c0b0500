package cmd

import (
	"fmt"

	"github.com/kebairia/mirrorctl/internal/operations"
	"github.com/spf13/cobra"
)

var historySource string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show when each backup destination was last written",
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := operations.NewOperator(ConfigFile)
		if err != nil {
			return err
		}
		table, err := op.History(historySource)
		if err != nil {
			return err
		}
		fmt.Print(table)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historySource, "source", "", "source drive root holding the ledger")
	historyCmd.MarkFlagRequired("source")
}
