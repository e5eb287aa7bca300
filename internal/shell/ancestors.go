package shell

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// maxAncestorDepth bounds the walk up the process tree.
const maxAncestorDepth = 16

// processAncestors walks the process table from the current process upwards,
// collecting the command line (or the executable name when the command line
// is unreadable) of each ancestor.
func processAncestors(ctx context.Context) ([]string, error) {
	current, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	var cmdlines []string
	for depth := 0; depth < maxAncestorDepth; depth++ {
		parent, err := current.ParentWithContext(ctx)
		if err != nil || parent == nil || parent.Pid == current.Pid {
			break
		}

		cmdline, err := parent.CmdlineWithContext(ctx)
		if err != nil || cmdline == "" {
			cmdline, _ = parent.NameWithContext(ctx)
		}
		if cmdline != "" {
			cmdlines = append(cmdlines, cmdline)
		}

		if parent.Pid <= 1 {
			break
		}
		current = parent
	}
	return cmdlines, nil
}
