package commands

import (
	"log/slog"
	"os"

	"electiondb/services/ingest"
	"electiondb/services/ingest/openstates"

	"github.com/spf13/cobra"
)

var (
	seatTermsCsv    *string
	seatTermsStart  *string
	seatTermsReason *string
)

func init() {
	seatTermsCsv = seatTermsCmd.Flags().String("csv", "", "OpenStates current-legislator CSV export.")
	seatTermsStart = seatTermsCmd.Flags().String("start", "", "Term start date (YYYY-MM-DD).")
	seatTermsReason = seatTermsCmd.Flags().String("reason", "elected", "Term start reason.")
	seatTermsCmd.MarkFlagRequired("csv")
	seatTermsCmd.MarkFlagRequired("start")
	rootCmd.AddCommand(seatTermsCmd)
}

var seatTermsCmd = &cobra.Command{
	Use:   "populate-seat-terms --state <ST> --csv <roster.csv> --start <date>",
	Short: "Opens one seat term per roster member from an OpenStates export.",
	Run: func(cmd *cobra.Command, args []string) {
		file, err := os.Open(*seatTermsCsv)
		if err != nil {
			fatal("failed to open roster csv", err)
		}
		defer file.Close()

		roster, err := openstates.ParseLegislators(file)
		if err != nil {
			fatal("failed to parse roster csv", err)
		}
		slog.Info("roster parsed", "members", len(roster))

		_, err = ingest.PopulateSeatTerms(
			cmd.Context(), driverConfig(), roster, *seatTermsStart, *seatTermsReason)
		if err != nil {
			fatal("populate-seat-terms failed", err)
		}
	},
}
