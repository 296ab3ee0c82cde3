package commands

import (
	"log/slog"

	"electiondb/lib/configutil"
	"electiondb/services/ingest"

	"github.com/spf13/cobra"
)

var specialsFile *string

func init() {
	specialsFile = specialsCmd.Flags().String("file", "", "json5 file listing decided special elections.")
	specialsCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(specialsCmd)
}

type specialsInput struct {
	Results []ingest.SpecialResult `json:"results"`
}

var specialsCmd = &cobra.Command{
	Use:   "populate-specials --state <ST> --file <specials.json5>",
	Short: "Closes vacated terms and opens winners' terms from special election results.",
	Run: func(cmd *cobra.Command, args []string) {
		input, err := configutil.ReadConfig[specialsInput](*specialsFile)
		if err != nil {
			fatal("failed to read specials file", err)
		}
		slog.Info("specials loaded", "results", len(input.Results))

		_, err = ingest.PopulateSpecials(cmd.Context(), driverConfig(), input.Results)
		if err != nil {
			fatal("populate-specials failed", err)
		}
	},
}
