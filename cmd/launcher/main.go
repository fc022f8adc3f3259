package main

import (
	"context"
	"log/slog"
	"os"

	"exec-launcher/internal/config"
	"exec-launcher/internal/launcher"
	"exec-launcher/internal/output"
	"exec-launcher/internal/pidmgr"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Parse()
	role := launcher.CurrentRole()

	sinks := newSinks(cfg, role)
	defer sinks.Close()

	var m pidmgr.Map
	if cfg.BPFPin != "" && role == launcher.RoleParent {
		pinned, err := pidmgr.OpenPinnedMap(cfg.BPFPin)
		if err != nil {
			slog.Warn("BPF PID map unavailable, tracking in memory only", "error", err)
		} else {
			defer pinned.Close()
			m = pinned
			slog.Info("Tracking child PIDs in pinned map", "path", pidmgr.PinnedPath(cfg.BPFPin))
		}
	}
	registry := pidmgr.New(m)

	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	slog.Debug("Launching", "role", role.String(), "program", cfg.Program, "args", cfg.Args)
	return int(launcher.New(cfg, sinks, registry).Launch(ctx))
}

// The child only reports its own failures. Metrics and the stdout event
// stream belong to the parent.
func newSinks(cfg config.Config, role launcher.Role) *output.Sinks {
	s := &output.Sinks{
		File: output.NewFileWriter(cfg.FileOutput, cfg.MaxRecordsFileOutput),
	}
	if cfg.LokiEndpoint != "" {
		s.Loki = output.NewLokiClient(cfg.LokiEndpoint)
	}
	if role == launcher.RoleParent {
		if cfg.StdoutEvents {
			s.Stdout = os.Stdout
		}
		s.Metrics = output.NewMetrics()
		s.Pushgateway = cfg.Pushgateway
		s.Job = cfg.Job
	}
	return s
}
