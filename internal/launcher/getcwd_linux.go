package launcher

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// getcwd grows its buffer on ERANGE. The kernel builds the path in a
// PATH_MAX page and reports ENAMETOOLONG past it; os.Getwd then walks "..".
func getcwd() (string, error) {
	for size := initialWorkDirBuf; size <= maxWorkDirBuf; size *= 2 {
		buf := make([]byte, size)
		n, err := unix.Getcwd(buf)
		if errors.Is(err, unix.ERANGE) {
			continue
		}
		if errors.Is(err, unix.ENAMETOOLONG) {
			return longGetwd()
		}
		if err != nil {
			return "", fmt.Errorf("getcwd: %w", err)
		}
		// n counts the trailing NUL.
		if n < 1 || n > len(buf) || buf[n-1] != 0 {
			return "", fmt.Errorf("getcwd: %w", unix.EINVAL)
		}
		// Linux prefixes "(unreachable)" when the directory is outside the
		// caller's root.
		if buf[0] != '/' {
			return "", fmt.Errorf("getcwd: %w", unix.ENOENT)
		}
		return string(buf[:n-1]), nil
	}
	return longGetwd()
}

func longGetwd() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getcwd: %w", err)
	}
	return wd, nil
}
