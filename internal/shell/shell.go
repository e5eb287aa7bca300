// Package shell works out which command interpreter the user is running.
package shell

import (
	"runtime"
	"strings"
)

// Identity names a command interpreter.
type Identity string

const (
	Bash       Identity = "bash"
	Zsh        Identity = "zsh"
	Fish       Identity = "fish"
	Sh         Identity = "sh"
	PowerShell Identity = "powershell"
	Cmd        Identity = "cmd"
	Unknown    Identity = "unknown"
)

// Known reports whether the identity names a real interpreter.
func (id Identity) Known() bool {
	switch id {
	case Bash, Zsh, Fish, Sh, PowerShell, Cmd:
		return true
	}
	return false
}

// Interpreter returns the argv prefix that runs a script text with this
// interpreter. The script is appended as the final argument.
// It returns nil for Unknown.
func (id Identity) Interpreter() []string {
	switch id {
	case Bash, Zsh, Fish, Sh:
		return []string{string(id), "-c"}
	case PowerShell:
		return []string{"powershell", "-NoProfile", "-Command"}
	case Cmd:
		return []string{"cmd", "/C"}
	}
	return nil
}

// CmdScript turns a multi-line script into one cmd.exe command line, since
// cmd /C only runs the first line. Lines are chained with & so each step
// runs regardless of the previous one, like a batch file.
func CmdScript(script string) string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " & ")
}

// IsWindows reports whether goos belongs to the Windows family.
func IsWindows(goos string) bool {
	return goos == "windows"
}

// CurrentOS returns the name used for the host OS in prompts.
func CurrentOS() string {
	return runtime.GOOS
}
