//go:build !unix

package daemon

import (
	"os"
	"syscall"
)

func detachedProcAttr() *syscall.SysProcAttr {
	return nil
}

func terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = proc.Release()
	return true
}
