package output

import (
	"fmt"
	"io"
	"log/slog"

	"exec-launcher/internal/event"
)

// Sinks fans launch events out to every configured destination. A failing
// sink is logged and never affects the launch itself.
type Sinks struct {
	Stdout      io.Writer
	File        *FileWriter
	Loki        *LokiClient
	Metrics     *Metrics
	Pushgateway string
	Job         string
}

func (s *Sinks) Emit(ev event.LaunchEvent) {
	line := ev.String()

	if s.Stdout != nil {
		fmt.Fprintln(s.Stdout, line)
	}
	if s.Metrics != nil {
		s.Metrics.Observe(ev)
	}
	if s.File != nil {
		if err := s.File.Write(line); err != nil {
			slog.Warn("File write failed", "error", err)
		}
	}
	if s.Loki != nil {
		if err := s.Loki.Push(ev); err != nil {
			slog.Warn("Loki push failed", "error", err)
		}
	}
}

// Close flushes metrics to the Pushgateway and closes the file sink.
func (s *Sinks) Close() {
	if s.Metrics != nil && s.Pushgateway != "" {
		if err := s.Metrics.Push(s.Pushgateway, s.Job); err != nil {
			slog.Warn("Metrics push failed", "error", err)
		}
	}
	if s.File != nil {
		if err := s.File.Close(); err != nil {
			slog.Warn("File close failed", "error", err)
		}
	}
}
