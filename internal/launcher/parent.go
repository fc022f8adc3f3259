package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"exec-launcher/internal/event"
)

// Child is a started child process that must be reaped with Wait.
type Child struct {
	PID int

	cmd     *exec.Cmd
	started time.Time
	exited  time.Time
}

// Start re-executes the current binary as the child and prints its PID.
// Any error is a *SpawnError and no child exists.
func (l *Launcher) Start(ctx context.Context) (*Child, error) {
	if l.Self == "" {
		return nil, &SpawnError{Err: errors.New("own executable path is unknown")}
	}

	cmd := exec.CommandContext(ctx, l.Self, l.SelfArgs...)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	cmd.Env = append(environWithout(os.Environ(), ChildEnv), ChildEnv+"=1")
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Path: l.Self, Err: err}
	}

	child := &Child{
		PID:     cmd.Process.Pid,
		cmd:     cmd,
		started: time.Now(),
	}

	fmt.Fprintf(l.Stdout, "Child's PID: %d\n", child.PID)

	if err := l.registry.Register(uint32(child.PID), l.cfg.Program); err != nil {
		slog.Warn("Failed to register child", "pid", child.PID, "error", err)
	}
	l.emit(event.LaunchEvent{
		Timestamp: child.started,
		PID:       child.PID,
		Outcome:   event.OutcomeStarted,
	})
	slog.Debug("Child started", "pid", child.PID, "self", l.Self)

	return child, nil
}

// Wait reaps the child and returns its exit status. A child killed by a
// signal reports 128 plus the signal number, as shells do. The error is
// non-nil only if the child could not be waited for.
func (c *Child) Wait() (int, error) {
	err := c.cmd.Wait()
	c.exited = time.Now()

	if c.cmd.ProcessState == nil {
		return -1, fmt.Errorf("wait for child %d: %w", c.PID, err)
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Reaped, but stdio copying or the context watcher failed.
		slog.Warn("Child reaped with error", "pid", c.PID, "error", err)
	}
	return exitCode(c.cmd.ProcessState), nil
}

// Runtime is the time between Start and the end of Wait.
func (c *Child) Runtime() time.Duration {
	if c.exited.IsZero() {
		return time.Since(c.started)
	}
	return c.exited.Sub(c.started)
}

func exitCode(ps *os.ProcessState) int {
	if ps == nil {
		return -1
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ps.ExitCode()
}
