//go:build !windows

package platform

import (
	"os/exec"
	"syscall"
)

// Detach makes cmd start in a new session so it keeps running after the
// parent's terminal goes away.
func Detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
