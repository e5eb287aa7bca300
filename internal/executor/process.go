package executor

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// waitDelay is how long Wait keeps reading output after the process is
// killed, in case a grandchild still holds the pipes open.
const waitDelay = 2 * time.Second

func (e *Executor) runProcess(ctx context.Context, argv []string) (Result, error) {
	outBuf := newOutputBuffer()
	errBuf := newOutputBuffer()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = e.opts.Dir
	cmd.Env = e.opts.Env
	cmd.Stdin = e.opts.Stdin
	cmd.Stdout = outBuf
	cmd.Stderr = errBuf
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd, e.opts.Stdin)
	configureCommandLine(cmd, argv)

	err := cmd.Run()

	result := Result{
		Stdout: outBuf.String(),
		Stderr: errBuf.String(),
	}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	// The executable could not be started (not found, not executable, ...).
	// That is a wrong command, so it is reported like any other error output.
	result.ExitCode = 127
	result.Stderr += err.Error() + "\n"
	return result, nil
}
