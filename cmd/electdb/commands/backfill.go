package commands

import (
	"electiondb/services/ingest"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(backfillCmd)
}

var backfillCmd = &cobra.Command{
	Use:   "backfill-end-dates --state <ST>",
	Short: "Infers missing term end dates from each successor's start date.",
	Run: func(cmd *cobra.Command, args []string) {
		_, err := ingest.BackfillEndDates(cmd.Context(), driverConfig())
		if err != nil {
			fatal("backfill-end-dates failed", err)
		}
	},
}
