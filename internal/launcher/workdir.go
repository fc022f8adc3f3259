package launcher

import "fmt"

const (
	initialWorkDirBuf = 2048
	maxWorkDirBuf     = 1 << 20
)

// WorkDir returns the current working directory. A positive limit makes
// paths of limit bytes or more fail with ErrBufferTooSmall, the way a
// NUL-terminated buffer of that size would.
func WorkDir(limit int) (string, error) {
	wd, err := getcwd()
	if err != nil {
		return "", err
	}
	if limit > 0 && len(wd) >= limit {
		return "", fmt.Errorf("%w: path is %d bytes, limit is %d", ErrBufferTooSmall, len(wd), limit)
	}
	return wd, nil
}
