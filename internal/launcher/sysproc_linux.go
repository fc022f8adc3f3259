package launcher

import "syscall"

// The child gets SIGTERM if the parent dies before reaping it.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGTERM,
	}
}
