package commands

import (
	"log/slog"

	"electiondb/services/ingest"
	"electiondb/services/ingest/ballotpedia"

	"github.com/spf13/cobra"
)

var (
	candidaciesUrl       *string
	candidaciesChamber   *string
	candidaciesYear      *int
	candidaciesType      *string
	candidaciesDate      *string
	candidaciesMajorOnly *bool
)

func init() {
	candidaciesUrl = candidaciesCmd.Flags().String("url", "", "Ballotpedia candidate list page URL.")
	candidaciesChamber = candidaciesCmd.Flags().String("chamber", "", "Chamber the page covers (House, Senate).")
	candidaciesYear = candidaciesCmd.Flags().Int("year", 0, "Election year.")
	candidaciesType = candidaciesCmd.Flags().String("type", "", "Election type (Primary_D, Primary_R, General, Special).")
	candidaciesDate = candidaciesCmd.Flags().String("date", "", "Election date (YYYY-MM-DD), optional.")
	candidaciesMajorOnly = candidaciesCmd.Flags().Bool("major-only", false, "Skip minor-party filings.")
	candidaciesCmd.MarkFlagRequired("url")
	candidaciesCmd.MarkFlagRequired("chamber")
	candidaciesCmd.MarkFlagRequired("year")
	candidaciesCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(candidaciesCmd)
}

var candidaciesCmd = &cobra.Command{
	Use:   "populate-candidacies --state <ST> --url <page> --chamber <c> --year <y> --type <t>",
	Short: "Downloads a Ballotpedia candidate list and inserts candidacies.",
	Run: func(cmd *cobra.Command, args []string) {
		client := ballotpedia.NewClient()
		races, err := client.FetchRaces(cmd.Context(), *candidaciesUrl)
		if err != nil {
			fatal("failed to fetch candidate list", err)
		}
		slog.Info("candidate list fetched", "districts", len(races))

		_, err = ingest.PopulateCandidacies(cmd.Context(), driverConfig(), races, ingest.ElectionSpec{
			Chamber:          *candidaciesChamber,
			Year:             *candidaciesYear,
			Type:             *candidaciesType,
			Date:             *candidaciesDate,
			MajorPartiesOnly: *candidaciesMajorOnly,
		})
		if err != nil {
			fatal("populate-candidacies failed", err)
		}
	},
}
