package app

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns the configured slog.Logger for the service. Every
// record carries a service attribute so aggregated logs from the HTTP
// server and the worker stay distinguishable.
func NewLogger(cfg *Config) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With(slog.String("service", "cardmint"))
}
