package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"electiondb/db"
	"electiondb/lib/configutil"
	"electiondb/lib/sqlgateway"
	"electiondb/lib/sqliteutil"
	"electiondb/services/ingest"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "electdb",
	Short: "electdb runs ingestion drivers against the elections database.",
}

// Config is electiondb.json5: the remote endpoint plus run pacing.
// Operators keep the token in electiondb.local.json5.
type Config struct {
	Remote       sqlgateway.RemoteConfig `json:"remote"`
	PauseSeconds int                     `json:"pause_seconds"`
}

var (
	flagState  *string
	flagLocal  *string
	flagDryRun *bool
	flagForce  *bool
)

func init() {
	flagState = rootCmd.PersistentFlags().String("state", "", "Two-letter state abbreviation.")
	flagLocal = rootCmd.PersistentFlags().String("local", "", "Run against a local sqlite file instead of the remote endpoint.")
	flagDryRun = rootCmd.PersistentFlags().Bool("dry-run", false, "Resolve and tally without writing.")
	flagForce = rootCmd.PersistentFlags().Bool("force", false, "Override already-populated precondition checks.")
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", msg, err)
	os.Exit(1)
}

// driverConfig builds the shared driver setup from flags and the config
// file. --local swaps the transport; drivers cannot tell the difference.
func driverConfig() ingest.Config {
	if *flagState == "" {
		fatal("missing flag", fmt.Errorf("--state is required"))
	}

	out := ingest.Config{
		State:  *flagState,
		DryRun: *flagDryRun,
		Force:  *flagForce,
	}

	if *flagLocal != "" {
		sqlite, err := sqliteutil.OpenDB(db.Schema, *flagLocal)
		if err != nil {
			fatal("failed to open local db", err)
		}
		out.Gateway = sqlgateway.NewLocal(sqlite)
		return out
	}

	cfg, err := configutil.ReadRecursively[Config]("electiondb.json5")
	if err != nil {
		fatal("failed to read electiondb.json5", err)
	}
	out.Gateway = sqlgateway.NewRemote(cfg.Remote)
	out.Pause = time.Duration(cfg.PauseSeconds) * time.Second
	return out
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
