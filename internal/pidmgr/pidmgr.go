// Package pidmgr keeps track of launched child processes and mirrors their
// PIDs into a BPF map, so that an external tracer can filter on them.
package pidmgr

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cilium/ebpf"
)

// Map is the subset of *ebpf.Map the registry writes through.
type Map interface {
	Update(key, value interface{}, flags ebpf.MapUpdateFlags) error
	Delete(key interface{}) error
}

// TrackedProcess holds information about a registered child.
type TrackedProcess struct {
	PID          uint32
	Program      string
	RegisteredAt time.Time
}

// Registry manages the set of tracked child PIDs.
type Registry struct {
	mu      sync.RWMutex
	tracked map[uint32]*TrackedProcess
	m       Map
}

// New creates a Registry backed by m. A nil m keeps the registry in memory only.
func New(m Map) *Registry {
	if m == nil {
		m = nopMap{}
	}
	return &Registry{
		tracked: make(map[uint32]*TrackedProcess),
		m:       m,
	}
}

// Register adds pid to the registry and the backing map.
func (r *Registry) Register(pid uint32, program string) error {
	if pid == 0 {
		return fmt.Errorf("PID must be non-zero")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tracked[pid]; exists {
		return fmt.Errorf("PID %d is already registered", pid)
	}

	if err := r.m.Update(pid, uint32(1), ebpf.UpdateAny); err != nil {
		return fmt.Errorf("update map for PID %d: %w", pid, err)
	}

	r.tracked[pid] = &TrackedProcess{
		PID:          pid,
		Program:      program,
		RegisteredAt: time.Now(),
	}

	slog.Debug("Registered child PID", "pid", pid, "program", program)
	return nil
}

// Unregister removes pid from the registry and the backing map.
func (r *Registry) Unregister(pid uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tracked[pid]; !exists {
		return fmt.Errorf("PID %d is not registered", pid)
	}

	if err := r.m.Delete(pid); err != nil {
		slog.Warn("Failed to delete PID from map", "pid", pid, "error", err)
	}

	delete(r.tracked, pid)
	slog.Debug("Unregistered child PID", "pid", pid)
	return nil
}

// List returns a copy of all tracked processes ordered by PID.
func (r *Registry) List() []TrackedProcess {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]TrackedProcess, 0, len(r.tracked))
	for _, proc := range r.tracked {
		result = append(result, *proc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PID < result[j].PID })
	return result
}

func (r *Registry) IsRegistered(pid uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.tracked[pid]
	return exists
}

type nopMap struct{}

func (nopMap) Update(key, value interface{}, flags ebpf.MapUpdateFlags) error { return nil }
func (nopMap) Delete(key interface{}) error { return nil }
