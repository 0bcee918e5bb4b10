// Package logging provides slog-based logging setup for the envrc manager.
// Each invocation is stamped with a sortable run ID so interleaved output from
// concurrent invocations can be told apart in shared log streams.
package logging

import (
	"crypto/rand"
	"log/slog"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/isseis/go-safe-envrc/internal/terminal"
)

// GenerateRunID generates a new ULID for run identification.
// ULIDs sort lexicographically by creation time, which keeps aggregated
// logs in chronological order.
func GenerateRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// ParseLevel converts a textual log level to a slog.Level.
// Unknown values default to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the default slog logger. Interactive terminals get a
// human-oriented handler on stderr with colored level tags; everything else
// gets the standard text handler so output stays machine-parseable.
func Setup(level slog.Level, detector *terminal.Detector, runID string) {
	var handler slog.Handler
	if detector.IsInteractive() {
		handler = NewInteractiveHandler(InteractiveHandlerOptions{
			Level:   level,
			Writer:  os.Stderr,
			Colored: detector.SupportsColor(),
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler).With("run_id", runID)
	slog.SetDefault(logger)
}
