package observability

import (
	"io"
	"log/slog"
	"os"
)

type LoggerOptions struct {
	// Out defaults to stdout.
	Out io.Writer
	// Text switches to the human-readable handler used by the interactive CLI.
	Text bool
	// Quiet raises the floor to warn regardless of env.
	Quiet bool
}

func NewLogger(env string, opts LoggerOptions) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}
	if opts.Quiet {
		level = slog.LevelWarn
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.Text {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	return slog.New(NewTraceHandler(handler))
}
