//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup kills a process and all its children using taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
func KillProcessGroup(pid int) {
	// Best effort: the launcher Kill that follows is the fallback.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
