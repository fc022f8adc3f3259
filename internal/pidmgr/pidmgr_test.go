package pidmgr

import (
	"errors"
	"testing"

	"github.com/cilium/ebpf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMap struct {
	entries   map[uint32]uint32
	updateErr error
}

func newFakeMap() *fakeMap {
	return &fakeMap{entries: make(map[uint32]uint32)}
}

func (f *fakeMap) Update(key, value interface{}, flags ebpf.MapUpdateFlags) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.entries[key.(uint32)] = value.(uint32)
	return nil
}

func (f *fakeMap) Delete(key interface{}) error {
	delete(f.entries, key.(uint32))
	return nil
}

func TestRegisterUnregister(t *testing.T) {
	m := newFakeMap()
	r := New(m)

	require.NoError(t, r.Register(30, "ls"))
	require.NoError(t, r.Register(10, "ls"))
	assert.True(t, r.IsRegistered(10))
	assert.Equal(t, uint32(1), m.entries[30])

	procs := r.List()
	require.Len(t, procs, 2)
	assert.Equal(t, uint32(10), procs[0].PID)
	assert.Equal(t, uint32(30), procs[1].PID)
	assert.Equal(t, "ls", procs[1].Program)

	require.NoError(t, r.Unregister(30))
	assert.False(t, r.IsRegistered(30))
	assert.NotContains(t, m.entries, uint32(30))
}

func TestRegisterRejects(t *testing.T) {
	r := New(nil)
	assert.Error(t, r.Register(0, "ls"))

	require.NoError(t, r.Register(5, "ls"))
	assert.Error(t, r.Register(5, "ls"))
	assert.Error(t, r.Unregister(6))
}

func TestRegisterMapFailure(t *testing.T) {
	m := newFakeMap()
	m.updateErr = errors.New("map full")
	r := New(m)

	err := r.Register(12, "ls")
	require.Error(t, err)
	assert.ErrorIs(t, err, m.updateErr)
	assert.False(t, r.IsRegistered(12))
	assert.Empty(t, r.List())
}

func TestPinnedPath(t *testing.T) {
	assert.Equal(t, "/sys/fs/bpf/launched_pids", PinnedPath("/sys/fs/bpf"))
}
