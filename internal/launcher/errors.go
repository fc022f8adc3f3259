package launcher

import (
	"errors"
	"fmt"
)

// ErrBufferTooSmall is returned by WorkDir when the path does not fit the
// configured limit.
var ErrBufferTooSmall = errors.New("buffer too small")

// SpawnError reports that the child process could not be created.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExecError reports that the child could not replace its image.
type ExecError struct {
	Program  string
	NotFound bool
	Err      error
}

func (e *ExecError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("%s: command not found: %v", e.Program, e.Err)
	}
	return fmt.Sprintf("exec %s: %v", e.Program, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
