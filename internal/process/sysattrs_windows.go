//go:build windows

package process

import (
	"os/exec"
	"syscall"
)

const detachedProcess = 0x00000008

// configureSysProcAttr detaches the child from the parent's console.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: detachedProcess}
}
