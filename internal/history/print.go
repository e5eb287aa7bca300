package history

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Print writes entries as a listing with times relative to now.
func Print(w io.Writer, entries []Entry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history yet.")
		return
	}
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = fmt.Sprintf("exit %d", e.ExitCode)
		}
		fmt.Fprintf(w, "%5d  %-14s  %-8s  %s\n",
			e.ID,
			humanize.RelTime(e.CreatedAt, now, "ago", "from now"),
			status,
			oneLine(e.Command),
		)
		fmt.Fprintf(w, "       attempt %d of %q\n", e.Attempt, e.Intent)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", " ; ")), " ")
}
