package event

import (
	"encoding/json"
	"time"
)

type Outcome string

const (
	OutcomeStarted       Outcome = "started"
	OutcomeExited        Outcome = "exited"
	OutcomeSpawnFailed   Outcome = "spawn_failed"
	OutcomeExecFailed    Outcome = "exec_failed"
	OutcomeWorkDirFailed Outcome = "workdir_failed"
)

// LaunchEvent records one step in the life of a launched child.
type LaunchEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Role      string        `json:"role"`
	PID       int           `json:"pid"`
	ParentPID int           `json:"ppid"`
	Program   string        `json:"program"`
	Args      []string      `json:"args,omitempty"`
	WorkDir   string        `json:"workdir,omitempty"`
	ExitCode  int           `json:"exit_code"`
	Runtime   time.Duration `json:"runtime_ns,omitempty"`
	Outcome   Outcome       `json:"outcome"`
	Error     string        `json:"error,omitempty"`
}

func (e LaunchEvent) String() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Failed reports whether the event ends a launch unsuccessfully.
func (e LaunchEvent) Failed() bool {
	switch e.Outcome {
	case OutcomeSpawnFailed, OutcomeExecFailed, OutcomeWorkDirFailed:
		return true
	case OutcomeExited:
		return e.ExitCode != 0
	}
	return false
}
