package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ANSI color codes for level tags
const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// InteractiveHandler is a slog handler that provides human-oriented output for
// interactive terminals: a short level tag (colored when supported), the
// message, and any attributes as trailing key=value pairs.
type InteractiveHandler struct {
	writer  io.Writer
	level   slog.Level
	colored bool
	attrs   []slog.Attr

	mu *sync.Mutex
}

// InteractiveHandlerOptions configures the InteractiveHandler.
type InteractiveHandlerOptions struct {
	// Level is the minimum log level to handle
	Level slog.Level

	// Writer is the output destination (typically os.Stderr)
	Writer io.Writer

	// Colored enables ANSI color codes for level tags
	Colored bool
}

// NewInteractiveHandler creates a new InteractiveHandler with the given options.
func NewInteractiveHandler(opts InteractiveHandlerOptions) *InteractiveHandler {
	return &InteractiveHandler{
		writer:  opts.Writer,
		level:   opts.Level,
		colored: opts.Colored,
		mu:      &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *InteractiveHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle processes a log record.
func (h *InteractiveHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(h.levelTag(r.Level))
	b.WriteString(r.Message)

	appendAttr := func(a slog.Attr) {
		// run_id is noise on a terminal; it stays in non-interactive logs.
		if a.Key == "run_id" {
			return
		}
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

// WithAttrs returns a new handler with the given attributes accumulated.
func (h *InteractiveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup returns the handler unchanged; grouped attributes are flattened
// for interactive output.
func (h *InteractiveHandler) WithGroup(_ string) slog.Handler {
	return h
}

// levelTag formats the level prefix, colored when enabled.
func (h *InteractiveHandler) levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.colorize("error: ", colorRed)
	case level >= slog.LevelWarn:
		return h.colorize("warning: ", colorYellow)
	case level >= slog.LevelInfo:
		return ""
	default:
		return h.colorize("debug: ", colorCyan)
	}
}

func (h *InteractiveHandler) colorize(s, color string) string {
	if !h.colored {
		return s
	}
	return color + s + colorReset
}
