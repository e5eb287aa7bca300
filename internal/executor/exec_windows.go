//go:build windows

package executor

import (
	"io"
	"os/exec"
	"syscall"
)

// configureProcessGroup is a no-op on Windows; CommandContext kills the
// leader process.
func configureProcessGroup(cmd *exec.Cmd, stdin io.Reader) {}

// configureCommandLine hands cmd.exe its script verbatim. os/exec quotes
// arguments for the MSVC runtime, which cmd does not parse, so quotes inside
// the script would otherwise arrive escaped.
func configureCommandLine(cmd *exec.Cmd, argv []string) {
	if len(argv) != 3 || argv[0] != "cmd" || argv[1] != "/C" {
		return
	}
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CmdLine = "cmd /C " + argv[2]
}
