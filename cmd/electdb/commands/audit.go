package commands

import (
	"os"

	"electiondb/services/ingest"
	"electiondb/services/ingest/openstates"

	"github.com/spf13/cobra"
)

var auditCsv *string

func init() {
	auditCsv = auditCmd.Flags().String("csv", "", "OpenStates current-legislator CSV export.")
	auditCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit-seat-gaps --state <ST> --csv <roster.csv>",
	Short: "Compares a scraped roster against the database without writing.",
	Run: func(cmd *cobra.Command, args []string) {
		file, err := os.Open(*auditCsv)
		if err != nil {
			fatal("failed to open roster csv", err)
		}
		defer file.Close()

		roster, err := openstates.ParseLegislators(file)
		if err != nil {
			fatal("failed to parse roster csv", err)
		}

		gaps, err := ingest.AuditSeatGaps(cmd.Context(), driverConfig(), roster)
		if err != nil {
			fatal("audit-seat-gaps failed", err)
		}
		ingest.RenderGaps(os.Stdout, gaps)
	},
}
