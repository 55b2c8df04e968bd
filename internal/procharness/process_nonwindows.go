//go:build !windows

package procharness

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup puts the spawned shell in its own process group so
// a cancellation can be delivered to the whole tree it spawns, not just the
// shell itself.
func configureProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.Cancel = func() error { return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL) }
}
