package shell

import (
	"context"
	"os"
	"os/exec"
	"path"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Host supplies everything the detector reads from the machine.
// Any nil field is treated as "no signal".
type Host struct {
	GOOS   string
	Getenv func(key string) string

	// Probe asks a minimal POSIX shell for its invocation name.
	Probe func(ctx context.Context) (string, error)

	// Ancestors returns the command lines of the calling process's
	// ancestors, nearest first.
	Ancestors func(ctx context.Context) ([]string, error)
}

// DefaultHost reads the real environment, spawns sh for the POSIX probe and
// walks the process table for ancestors.
func DefaultHost() Host {
	return Host{
		GOOS:      runtime.GOOS,
		Getenv:    os.Getenv,
		Probe:     probeInvocationName,
		Ancestors: processAncestors,
	}
}

// Detector resolves the shell identity once and caches it.
type Detector struct {
	host   Host
	logger *zap.Logger

	once     sync.Once
	identity Identity
}

// NewDetector creates a detector for the current host.
// The logger is optional (can be nil).
func NewDetector(logger *zap.Logger) *Detector {
	return NewDetectorWithHost(DefaultHost(), logger)
}

// NewDetectorWithHost creates a detector reading from the given host.
func NewDetectorWithHost(host Host, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{host: host, logger: logger}
}

// Detect returns the active interpreter. It never fails; when no signal is
// usable the result is Unknown. The first result is cached.
func (d *Detector) Detect(ctx context.Context) Identity {
	d.once.Do(func() {
		if IsWindows(d.host.GOOS) {
			d.identity = d.detectWindows(ctx)
		} else {
			d.identity = d.detectPOSIX(ctx)
		}
		d.logger.Debug("detected shell", zap.String("goos", d.host.GOOS), zap.String("shell", string(d.identity)))
	})
	return d.identity
}

func (d *Detector) getenv(key string) string {
	if d.host.Getenv == nil {
		return ""
	}
	return d.host.Getenv(key)
}

func (d *Detector) detectWindows(ctx context.Context) Identity {
	if d.getenv("PSModulePath") != "" {
		return PowerShell
	}

	if strings.Contains(strings.ToLower(d.getenv("ComSpec")), "cmd.exe") {
		return Cmd
	}

	if d.host.Ancestors == nil {
		return Unknown
	}
	cmdlines, err := d.host.Ancestors(ctx)
	if err != nil {
		d.logger.Debug("failed to read process ancestors", zap.Error(err))
	}
	for _, cmdline := range cmdlines {
		if id, ok := MatchWindows(cmdline); ok {
			return id
		}
	}
	return Unknown
}

func (d *Detector) detectPOSIX(ctx context.Context) Identity {
	if id, ok := MatchPOSIX(d.getenv("SHELL")); ok {
		return id
	}

	if d.host.Probe == nil {
		return Unknown
	}
	out, err := d.host.Probe(ctx)
	if err != nil {
		d.logger.Debug("shell probe failed", zap.Error(err))
		return Unknown
	}
	if id, ok := MatchPOSIX(out); ok {
		return id
	}
	return Unknown
}

// posixCandidates is ordered; the first match wins.
var posixCandidates = []Identity{Bash, Zsh, Fish, Sh}

// shCompatible are POSIX shells reported as plain sh.
var shCompatible = map[string]bool{
	"dash": true,
	"ash":  true,
	"ksh":  true,
	"mksh": true,
	"yash": true,
	"posh": true,
}

// MatchPOSIX maps a shell path or invocation name to an identity. Only the
// basename is considered, so "/usr/bin/zsh" is zsh and never sh.
func MatchPOSIX(value string) (Identity, bool) {
	name := shellName(value)
	if name == "" {
		return Unknown, false
	}

	for _, candidate := range posixCandidates {
		c := string(candidate)
		if name == c || (strings.HasPrefix(name, c) && isVersionSuffix(name[len(c):])) {
			return candidate, true
		}
	}
	if shCompatible[name] {
		return Sh, true
	}
	return Unknown, false
}

// shellName normalises "-/bin/bash", "/usr/local/bin/fish\n" or "bash.exe" to a bare name.
func shellName(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.LastIndex(value, "\n"); i >= 0 {
		value = strings.TrimSpace(value[i+1:])
	}
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\\", "/")
	name := strings.ToLower(path.Base(value))
	name = strings.TrimPrefix(name, "-")
	name = strings.TrimSuffix(name, ".exe")
	return name
}

func isVersionSuffix(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// MatchWindows finds a known interpreter executable in a process command line.
func MatchWindows(cmdline string) (Identity, bool) {
	lower := strings.ToLower(cmdline)
	switch {
	case strings.Contains(lower, "powershell.exe"), strings.Contains(lower, "pwsh.exe"):
		return PowerShell, true
	case strings.Contains(lower, "cmd.exe"):
		return Cmd, true
	}
	return Unknown, false
}

func probeInvocationName(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "sh", "-c", "echo $0").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
