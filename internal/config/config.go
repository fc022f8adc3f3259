package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	DefaultProgram    = "ls"
	DefaultArgs       = "-l"
	DefaultJob        = "exec_launcher"
	DefaultMaxRecords = 1000
)

type Config struct {
	Program              string
	Args                 []string
	CwdLimit             int
	ExitWithChild        bool
	FileOutput           string
	MaxRecordsFileOutput int
	LokiEndpoint         string
	Pushgateway          string
	Job                  string
	BPFPin               string
	StdoutEvents         bool
	Timeout              time.Duration
}

// Parse reads the process arguments and exits with status 2 on bad input.
func Parse() Config {
	initLogger(os.Stderr)

	cfg, err := ParseArgs(os.Args[1:])
	if err != nil {
		if err != flag.ErrHelp {
			slog.Error("Invalid arguments", "error", err)
		}
		os.Exit(2)
	}
	return cfg
}

// ParseArgs parses args without touching the global flag set.
func ParseArgs(args []string) (Config, error) {
	fs := flag.NewFlagSet("exec-launcher", flag.ContinueOnError)

	programPtr := fs.String("program", DefaultProgram, "Program that replaces the child's image")
	programShorthandPtr := fs.String("x", "", "Shorthand for --program")

	argsPtr := fs.String("args", DefaultArgs, "Comma-separated arguments passed to the program; items are trimmed and cannot contain commas (use -- for verbatim arguments)")
	argsShorthandPtr := fs.String("a", "", "Shorthand for --args")

	cwdLimitPtr := fs.Int("cwd-limit", 0, "Fail when the working directory path reaches this many bytes (0 for no limit)")
	cwdLimitShorthandPtr := fs.Int("c", 0, "Shorthand for --cwd-limit")

	exitWithChildPtr := fs.Bool("exit-with-child", false, "Exit with the child's exit status")
	exitWithChildShorthandPtr := fs.Bool("e", false, "Shorthand for --exit-with-child")

	fileOutputPtr := fs.String("file-output", "", "File to append launch events to")
	fileOutputShorthandPtr := fs.String("o", "", "Shorthand for --file-output")

	maxRecordsPtr := fs.Int("max-records-fileoutput", DefaultMaxRecords, "Maximum records per file before rotation")
	maxRecordsShorthandPtr := fs.Int("n", 0, "Shorthand for --max-records-fileoutput")

	lokiEndpointPtr := fs.String("loki-endpoint", "", "URL of the Loki server push endpoint")
	lokiEndpointShorthandPtr := fs.String("l", "", "Shorthand for --loki-endpoint")

	pushgatewayPtr := fs.String("pushgateway", "", "URL of a Prometheus Pushgateway to push launch metrics to")
	pushgatewayShorthandPtr := fs.String("g", "", "Shorthand for --pushgateway")
	jobPtr := fs.String("job", DefaultJob, "Pushgateway job name")

	bpfPinPtr := fs.String("bpf-pin", "", "bpffs directory to pin the launched_pids BPF map in")
	bpfPinShorthandPtr := fs.String("b", "", "Shorthand for --bpf-pin")

	stdoutEventsPtr := fs.Bool("stdout-events", false, "Also print launch events to stdout as JSON lines")
	stdoutEventsShorthandPtr := fs.Bool("s", false, "Shorthand for --stdout-events")

	timeoutPtr := fs.Duration("timeout", 0, "Kill the child after this long (0 for no limit)")
	timeoutShorthandPtr := fs.Duration("t", 0, "Shorthand for --timeout")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: %s [options] [-- program-args...]\n\n", os.Args[0])
		fmt.Fprintln(out, "Options:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	sep := len(args) - fs.NArg() - 1
	dashed := fs.NArg() > 0 && sep >= 0 && args[sep] == "--"
	if fs.NArg() > 0 && !dashed {
		return Config{}, fmt.Errorf("unexpected arguments: %s (put program arguments after --)", strings.Join(fs.Args(), " "))
	}

	cfg := Config{
		Program:              coalesceStr(*programShorthandPtr, *programPtr),
		Args:                 splitArgs(coalesceStr(*argsShorthandPtr, *argsPtr)),
		CwdLimit:             coalesce(*cwdLimitShorthandPtr, *cwdLimitPtr),
		ExitWithChild:        *exitWithChildPtr || *exitWithChildShorthandPtr,
		FileOutput:           coalesceStr(*fileOutputShorthandPtr, *fileOutputPtr),
		MaxRecordsFileOutput: coalesce(*maxRecordsShorthandPtr, *maxRecordsPtr),
		LokiEndpoint:         coalesceStr(*lokiEndpointShorthandPtr, *lokiEndpointPtr),
		Pushgateway:          coalesceStr(*pushgatewayShorthandPtr, *pushgatewayPtr),
		Job:                  *jobPtr,
		BPFPin:               coalesceStr(*bpfPinShorthandPtr, *bpfPinPtr),
		StdoutEvents:         *stdoutEventsPtr || *stdoutEventsShorthandPtr,
		Timeout:              *timeoutPtr,
	}
	// Arguments after -- are passed through verbatim and replace --args.
	if dashed {
		cfg.Args = append([]string(nil), fs.Args()...)
	}
	if *timeoutShorthandPtr != 0 {
		cfg.Timeout = *timeoutShorthandPtr
	}

	if cfg.Program == "" {
		return Config{}, fmt.Errorf("program must not be empty")
	}
	if cfg.CwdLimit < 0 {
		return Config{}, fmt.Errorf("cwd-limit must not be negative: %d", cfg.CwdLimit)
	}
	if cfg.Timeout < 0 {
		return Config{}, fmt.Errorf("timeout must not be negative: %s", cfg.Timeout)
	}
	if cfg.MaxRecordsFileOutput <= 0 {
		cfg.MaxRecordsFileOutput = DefaultMaxRecords
	}
	if cfg.Job == "" {
		cfg.Job = DefaultJob
	}

	return cfg, nil
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Logs go to w rather than stdout, which carries the launcher's own lines.
func initLogger(w io.Writer) {
	level := slog.LevelInfo
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func coalesce(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func coalesceStr(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
