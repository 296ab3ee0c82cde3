package main

import (
	"context"
	"log/slog"

	"electiondb/cmd/electdb/commands"
	"electiondb/lib/telemetry"
)

func main() {
	ctx := context.Background()
	telemetry.InitSlog(true)

	tel, err := telemetry.SetupFromEnv(ctx, "electdb")
	if err != nil {
		slog.Error("could not set up telemetry", "err", err)
	}
	defer func() {
		if err := tel.Shutdown(ctx); err != nil {
			slog.Error("could not shut down telemetry", "err", err)
		}
	}()

	commands.ExecuteContext(ctx)
}
