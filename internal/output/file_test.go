package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriterRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	w := NewFileWriter(path, 2)
	defer w.Close()

	for _, line := range []string{"a", "b", "c"} {
		require.NoError(t, w.Write(line))
	}

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(backup))

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "c\n", string(current))
}

func TestFileWriterDisabled(t *testing.T) {
	w := NewFileWriter("", 10)
	assert.NoError(t, w.Write("ignored"))
	assert.NoError(t, w.Close())
}

func TestFileWriterOpenError(t *testing.T) {
	w := NewFileWriter(filepath.Join(t.TempDir(), "missing", "events.log"), 10)
	assert.Error(t, w.Write("x"))
}
