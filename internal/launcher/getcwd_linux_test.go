package launcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// Paths past PATH_MAX can only be reached with relative chdirs. Every depth
// is checked so the switch from the syscall buffer to the ".." walk is
// covered on both sides.
func TestWorkDirBeyondPathMax(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	chdir(t, base)

	name := strings.Repeat("d", 200)
	want := base
	for len(want) < 5000 {
		require.NoError(t, os.Mkdir(name, 0755))
		require.NoError(t, os.Chdir(name))
		want += "/" + name

		wd, err := WorkDir(0)
		require.NoError(t, err, "depth with %d bytes", len(want))
		assert.Equal(t, want, wd)
	}
	require.Greater(t, len(want), unix.PathMax)

	osWd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, osWd, want)

	_, err = WorkDir(2048)
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}
