package executor

import (
	"context"
	"errors"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// runBuiltin parses and runs command with a fresh mvdan/sh runner.
func (e *Executor) runBuiltin(ctx context.Context, command string) (Result, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return Result{Stderr: err.Error() + "\n", ExitCode: 2}, nil
	}

	outBuf := newOutputBuffer()
	errBuf := newOutputBuffer()

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(e.opts.Env...)),
		interp.StdIO(e.opts.Stdin, outBuf, errBuf),
	}
	if e.opts.Dir != "" {
		opts = append(opts, interp.Dir(e.opts.Dir))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return Result{}, err
	}

	err = runner.Run(ctx, prog)

	result := Result{
		Stdout: outBuf.String(),
		Stderr: errBuf.String(),
	}
	if err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			result.ExitCode = int(exitStatus)
			return result, nil
		}
		if ctx.Err() != nil {
			return result, nil
		}
		// Real execution error (bad redirect target, ...)
		result.ExitCode = 1
		result.Stderr += err.Error() + "\n"
	}
	return result, nil
}
