//go:build !windows

package executor

import (
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/term"
)

// configureProcessGroup puts the child in its own process group so that a
// timeout or cancellation kills everything the command spawned. Commands
// attached to a terminal stay in the foreground group; moving them out would
// stop them with SIGTTIN the moment they read input.
func configureProcessGroup(cmd *exec.Cmd, stdin io.Reader) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}

// configureCommandLine is a no-op outside Windows; argv reaches the child
// unchanged.
func configureCommandLine(cmd *exec.Cmd, argv []string) {}
