// Package executor runs generated command text and captures what it prints.
// A command never "fails" from the executor's point of view: non-zero exit
// codes, missing executables and parse errors all end up in Result.Stderr so
// the repair loop can feed them back to the model.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/shell"
	"go.uber.org/zap"
)

// Mode selects how command text is turned into a process.
type Mode string

const (
	// ModeShell runs the text with the detected interpreter, e.g. bash -c <text>.
	ModeShell Mode = "shell"
	// ModeDirect runs the text as a single executable path on POSIX and
	// through powershell -Command on Windows.
	ModeDirect Mode = "direct"
	// ModeBuiltin runs the text with the in-process POSIX interpreter.
	ModeBuiltin Mode = "builtin"
)

// ParseMode validates a mode name. The empty string selects ModeShell.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeShell:
		return ModeShell, nil
	case ModeDirect:
		return ModeDirect, nil
	case ModeBuiltin:
		return ModeBuiltin, nil
	}
	return "", fmt.Errorf("unknown exec mode %q (want shell, direct or builtin)", s)
}

// Result is the captured outcome of one command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the command wrote nothing to stderr.
func (r Result) Success() bool {
	return r.Stderr == ""
}

// Feedback is the text reported back to the model: stdout when the command
// printed anything there, stderr otherwise.
func (r Result) Feedback() string {
	if r.Stdout != "" {
		return r.Stdout
	}
	return r.Stderr
}

// Options configures an Executor.
type Options struct {
	Mode  Mode
	Shell shell.Identity
	// GOOS defaults to runtime.GOOS.
	GOOS string
	// Timeout bounds each command; zero means no limit.
	Timeout time.Duration
	// Stdin is handed to the command; nil means no input.
	Stdin io.Reader
	Dir   string
	// Env defaults to the current process environment.
	Env    []string
	Logger *zap.Logger
}

// Executor runs command text according to its Options.
type Executor struct {
	opts   Options
	logger *zap.Logger
}

// New creates an Executor.
func New(opts Options) *Executor {
	if opts.Mode == "" {
		opts.Mode = ModeShell
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.Env == nil {
		opts.Env = append(os.Environ(),
			"PAGER=cat",
			"GIT_PAGER=cat",
		)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{opts: opts, logger: logger}
}

// Mode returns the effective mode after fallbacks for the given settings.
func (e *Executor) Mode() Mode {
	if e.opts.Mode == ModeShell && !e.opts.Shell.Known() && !shell.IsWindows(e.opts.GOOS) {
		return ModeBuiltin
	}
	return e.opts.Mode
}

// Argv returns the process arguments used to run command, or nil when the
// command runs in-process.
func (e *Executor) Argv(command string) []string {
	windows := shell.IsWindows(e.opts.GOOS)

	switch e.Mode() {
	case ModeDirect:
		if windows {
			return []string{"powershell", "-Command", command}
		}
		return []string{strings.TrimSpace(command)}
	case ModeShell:
		if e.opts.Shell == shell.Cmd {
			command = shell.CmdScript(command)
		}
		if prefix := e.opts.Shell.Interpreter(); prefix != nil {
			return append(append([]string{}, prefix...), command)
		}
		return []string{"powershell", "-Command", command}
	}
	return nil
}

// Run executes command and captures its output. The returned error is
// non-nil only when ctx is cancelled.
func (e *Executor) Run(ctx context.Context, command string) (Result, error) {
	runCtx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	var result Result
	var err error
	if argv := e.Argv(command); argv != nil {
		e.logger.Debug("running command", zap.Strings("argv", argv))
		result, err = e.runProcess(runCtx, argv)
	} else {
		e.logger.Debug("running command in-process", zap.String("command", command))
		result, err = e.runBuiltin(runCtx, command)
	}
	result.Duration = time.Since(start)

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	if err != nil {
		return result, err
	}
	if runCtx.Err() == context.DeadlineExceeded {
		result.Stderr += fmt.Sprintf("command timed out after %s\n", e.opts.Timeout)
	}

	e.logger.Debug("command finished",
		zap.Int("exitCode", result.ExitCode),
		zap.Int("stdoutBytes", len(result.Stdout)),
		zap.Int("stderrBytes", len(result.Stderr)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}
