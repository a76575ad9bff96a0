// Package observability holds the logger and Prometheus metrics shared
// by the statbot binaries.
package observability

import (
	"io"
	"log/slog"

	"github.com/timcuber37/wca-statbot/internal/config"
)

// NewLogger builds the process logger from config. Pass os.Stderr in
// the binaries; tests can pass a buffer or nil to discard output.
func NewLogger(cfg config.LogConfig, service string, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: cfg.Level})
	} else {
		handler = slog.NewTextHandler(writer, &slog.HandlerOptions{Level: cfg.Level})
	}
	return slog.New(handler).With(slog.String("service", service))
}
