// Package launcher splits the running program into a parent and a child.
// The child reports its working directory and replaces its image with a
// configured program. The parent reports the child's PID and reaps it.
//
// Go cannot fork a running runtime, so the child is a re-executed copy of
// the current binary, marked through the environment.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"exec-launcher/internal/config"
	"exec-launcher/internal/event"
	"exec-launcher/internal/pidmgr"
)

// ChildEnv marks a re-executed copy as the child.
const ChildEnv = "EXEC_LAUNCHER_CHILD"

type Role int

const (
	RoleParent Role = iota
	RoleChild
)

func (r Role) String() string {
	if r == RoleChild {
		return "child"
	}
	return "parent"
}

// CurrentRole reports which side of the split this process is on.
func CurrentRole() Role {
	if os.Getenv(ChildEnv) == "1" {
		return RoleChild
	}
	return RoleParent
}

// ExitStatus is a process exit code.
type ExitStatus int

const (
	ExitOK           ExitStatus = 0
	ExitWorkDir      ExitStatus = 1
	ExitSpawnFailed  ExitStatus = 2
	ExitWaitFailed   ExitStatus = 3
	ExitExecFailed   ExitStatus = 126
	ExitExecNotFound ExitStatus = 127
)

// Emitter receives launch events.
type Emitter interface {
	Emit(event.LaunchEvent)
}

type nopEmitter struct{}

func (nopEmitter) Emit(event.LaunchEvent) {}

type Launcher struct {
	cfg      config.Config
	role     Role
	events   Emitter
	registry *pidmgr.Registry

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Self is the binary re-executed as the child, with SelfArgs as its
	// arguments.
	Self     string
	SelfArgs []string

	lookPath func(file string) (string, error)
	exec     func(argv0 string, argv []string, envv []string) error
}

// New returns a Launcher for the current process. events and registry may be
// nil.
func New(cfg config.Config, events Emitter, registry *pidmgr.Registry) *Launcher {
	if events == nil {
		events = nopEmitter{}
	}
	if registry == nil {
		registry = pidmgr.New(nil)
	}
	self, err := os.Executable()
	if err != nil {
		slog.Warn("Cannot resolve own executable", "error", err)
	}
	return &Launcher{
		cfg:      cfg,
		role:     CurrentRole(),
		events:   events,
		registry: registry,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Self:     self,
		SelfArgs: os.Args[1:],
		lookPath: exec.LookPath,
		exec:     unix.Exec,
	}
}

func (l *Launcher) Role() Role {
	return l.role
}

// Launch runs this process's side of the split and returns its exit status.
// In the child it returns only if the image could not be replaced.
func (l *Launcher) Launch(ctx context.Context) ExitStatus {
	if l.role == RoleChild {
		return l.RunChild()
	}
	return l.runParent(ctx)
}

func (l *Launcher) runParent(ctx context.Context) ExitStatus {
	child, err := l.Start(ctx)
	if err != nil {
		slog.Error("Spawning child process failed", "error", err)
		fmt.Fprintf(l.Stderr, "Spawning child process failed: %v\n", err)
		l.emit(event.LaunchEvent{
			Outcome: event.OutcomeSpawnFailed,
			Error:   err.Error(),
		})
		return ExitSpawnFailed
	}

	code, err := child.Wait()
	if uerr := l.registry.Unregister(uint32(child.PID)); uerr != nil {
		slog.Warn("Failed to unregister child", "pid", child.PID, "error", uerr)
	}

	ev := event.LaunchEvent{
		PID:      child.PID,
		ExitCode: code,
		Runtime:  child.Runtime(),
		Outcome:  event.OutcomeExited,
	}
	if err != nil {
		slog.Error("Waiting for child failed", "pid", child.PID, "error", err)
		ev.Error = err.Error()
		l.emit(ev)
		return ExitWaitFailed
	}
	l.emit(ev)

	slog.Info("Child exited", "pid", child.PID, "exit_code", code, "runtime", ev.Runtime)
	if l.cfg.ExitWithChild {
		return ExitStatus(code)
	}
	return ExitOK
}

// RunChild reports the working directory and replaces the process image.
func (l *Launcher) RunChild() ExitStatus {
	wd, err := WorkDir(l.cfg.CwdLimit)
	if err != nil {
		if errors.Is(err, ErrBufferTooSmall) {
			fmt.Fprintln(l.Stderr, "Buffer too small.")
		} else {
			fmt.Fprintf(l.Stderr, "Cannot determine working directory: %v\n", err)
		}
		l.emit(event.LaunchEvent{
			PID:     os.Getpid(),
			Outcome: event.OutcomeWorkDirFailed,
			Error:   err.Error(),
		})
		return ExitWorkDir
	}

	fmt.Fprintf(l.Stdout, "Child's working directory: %s\n", wd)

	err = l.replaceImage()
	fmt.Fprintf(l.Stderr, "Executing process failed: %v\n", err)
	l.emit(event.LaunchEvent{
		PID:     os.Getpid(),
		WorkDir: wd,
		Outcome: event.OutcomeExecFailed,
		Error:   err.Error(),
	})

	var execErr *ExecError
	if errors.As(err, &execErr) && execErr.NotFound {
		return ExitExecNotFound
	}
	return ExitExecFailed
}

// replaceImage only returns on failure.
func (l *Launcher) replaceImage() error {
	path, err := l.lookPath(l.cfg.Program)
	if err != nil {
		return &ExecError{
			Program:  l.cfg.Program,
			NotFound: !errors.Is(err, os.ErrPermission),
			Err:      err,
		}
	}

	argv := append([]string{l.cfg.Program}, l.cfg.Args...)
	slog.Debug("Replacing child image", "path", path, "argv", argv)

	err = l.exec(path, argv, environWithout(os.Environ(), ChildEnv))
	return &ExecError{Program: l.cfg.Program, Err: err}
}

func (l *Launcher) emit(ev event.LaunchEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	ev.Role = l.role.String()
	if ev.ParentPID == 0 {
		if l.role == RoleChild {
			ev.ParentPID = os.Getppid()
		} else {
			ev.ParentPID = os.Getpid()
		}
	}
	ev.Program = l.cfg.Program
	ev.Args = l.cfg.Args
	l.events.Emit(ev)
}

func environWithout(env []string, key string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return out
}
