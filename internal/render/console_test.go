package render

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/executor"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/repair"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func newTestConsole() (*Console, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	profile := termenv.Ascii
	return NewConsole(Options{Out: &out, Err: &errOut, Profile: &profile}), &out, &errOut
}

func TestConsoleReplyAndExecute(t *testing.T) {
	console, out, _ := newTestConsole()

	console.OnGenerate(1)
	console.OnReply(1, "```bash\nls -la\n```\n")
	console.OnExecute(1, "ls -la")

	assert.Equal(t, "response\n```bash\nls -la\n```\n▶ Executing: ls -la\n", out.String())
}

func TestConsoleResult(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		console, out, errOut := newTestConsole()
		console.OnResult(repair.Attempt{
			Number:  1,
			Command: "echo hi",
			Result:  executor.Result{Stdout: "hi", Duration: 1500 * time.Microsecond},
		})

		assert.Equal(t, "hi\n✓ exit 0 · 2ms\n", out.String())
		assert.Empty(t, errOut.String())
	})

	t.Run("failure goes to stderr", func(t *testing.T) {
		console, out, errOut := newTestConsole()
		console.OnResult(repair.Attempt{
			Number: 1,
			Result: executor.Result{Stderr: "line one\nline two\n", ExitCode: 2},
		})

		assert.Equal(t, "line one\nline two\n", errOut.String())
		assert.Equal(t, "✗ exit 2 · 0s\n", out.String())
	})
}

func TestConsoleRetryAndSuccess(t *testing.T) {
	console, out, _ := newTestConsole()

	console.OnRetry(repair.Attempt{Number: 1})
	console.OnSuccess(repair.Outcome{Attempts: 1})
	console.OnSuccess(repair.Outcome{Attempts: 3})

	assert.Equal(t, "→ Fixing...\n✓ Done after 1 attempt\n✓ Done after 3 attempts\n", out.String())
}

func TestConsoleError(t *testing.T) {
	console, _, errOut := newTestConsole()
	console.Error(errors.New("API_KEY not found"))
	assert.Equal(t, "✗ API_KEY not found\n", errOut.String())
}

func TestConsoleSpinnerStopsOnReply(t *testing.T) {
	var out, errOut bytes.Buffer
	profile := termenv.Ascii
	console := NewConsole(Options{Out: &out, Err: &errOut, Profile: &profile, Spinner: true})

	console.OnGenerate(2)
	time.Sleep(50 * time.Millisecond)
	console.OnReply(2, "fixed")

	assert.Contains(t, errOut.String(), "Fixing (attempt 2)...")
	assert.Contains(t, errOut.String(), "\r\033[K")
	assert.Equal(t, "response\nfixed\n", out.String())

	console.Close()
}

func TestConsoleMarkdown(t *testing.T) {
	var out, errOut bytes.Buffer
	profile := termenv.Ascii
	console := NewConsole(Options{Out: &out, Err: &errOut, Profile: &profile, Markdown: true, Width: 60})

	console.OnReply(1, "Run this:\n\n```bash\nls -la\n```\n")
	assert.Contains(t, out.String(), "ls -la")
	assert.Contains(t, out.String(), "Run this:")
}
