//go:build windows

package procharness

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup is best-effort on Windows: it places the process in
// its own process group so it can be targeted independently of the harness.
func configureProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
}
