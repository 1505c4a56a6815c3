//go:build windows

package platform

import (
	"os/exec"
	"syscall"
)

// Detach makes cmd start in its own process group
func Detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
