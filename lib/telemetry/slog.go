package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default text handler. Debug mode is what operators
// run the drivers with when diagnosing a parse or match failure.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
