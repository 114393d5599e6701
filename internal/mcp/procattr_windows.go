//go:build windows

package mcp

import (
	"os/exec"
	"syscall"
)

// setProcessGroup suppresses the console window a spawned MCP server
// would otherwise briefly flash on Windows.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: 0x08000000} // CREATE_NO_WINDOW
}

// killProcessGroup kills just the process itself; Windows process-group
// semantics differ enough that we rely on exec.Cmd.Process.Kill instead.
func killProcessGroup(pid int) {}
