package pidmgr

import (
	"fmt"
	"path/filepath"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/rlimit"
)

const (
	trackedMapName    = "launched_pids"
	trackedMapEntries = 1024
)

// OpenPinnedMap creates, or reopens, a u32 -> u32 hash map pinned as
// launched_pids inside the bpffs directory dir. The caller owns the returned
// map and must Close it. The pin outlives the process.
func OpenPinnedMap(dir string) (*ebpf.Map, error) {
	if err := rlimit.RemoveMemlock(); err != nil {
		return nil, fmt.Errorf("remove memlock: %w", err)
	}

	spec := &ebpf.MapSpec{
		Name:       trackedMapName,
		Type:       ebpf.Hash,
		KeySize:    4,
		ValueSize:  4,
		MaxEntries: trackedMapEntries,
		Pinning:    ebpf.PinByName,
	}

	m, err := ebpf.NewMapWithOptions(spec, ebpf.MapOptions{PinPath: dir})
	if err != nil {
		return nil, fmt.Errorf("open pinned map %s: %w", PinnedPath(dir), err)
	}
	return m, nil
}

// PinnedPath is where OpenPinnedMap pins the map inside dir.
func PinnedPath(dir string) string {
	return filepath.Join(dir, trackedMapName)
}
