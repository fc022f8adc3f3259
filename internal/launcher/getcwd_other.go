//go:build !linux

package launcher

import "os"

func getcwd() (string, error) {
	return os.Getwd()
}
