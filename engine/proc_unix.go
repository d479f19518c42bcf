//go:build unix

package engine

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the engine in its own process group and makes
// cancellation kill the whole group, so engines launched through wrapper
// scripts die with their wrapper.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
