package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/repair"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Options configures a Console.
type Options struct {
	Out io.Writer
	Err io.Writer
	// Profile forces a color profile; nil detects it from Out.
	Profile *termenv.Profile
	// Markdown renders model replies with glamour.
	Markdown bool
	// Spinner animates while waiting for the model.
	Spinner bool
	// Width is the word wrap width for markdown; zero disables wrapping.
	Width int
}

// Console is a repair.Observer that reports progress on the terminal.
type Console struct {
	opts     Options
	styles   Styles
	markdown *glamour.TermRenderer

	mu          sync.Mutex
	spinner     *Spinner
	stopSpinner func()
}

var _ repair.Observer = (*Console)(nil)

func NewConsole(opts Options) *Console {
	c := &Console{
		opts:   opts,
		styles: NewStyles(opts.Out, opts.Profile),
	}
	if opts.Spinner {
		c.spinner = NewSpinner(opts.Err, c.styles.Exec)
	}
	if opts.Markdown {
		tr, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(opts.Width),
		)
		if err == nil {
			c.markdown = tr
		}
	}
	return c
}

func (c *Console) OnGenerate(number int) {
	if c.spinner == nil {
		return
	}
	message := "Dreaming..."
	if number > 1 {
		message = fmt.Sprintf("Fixing (attempt %d)...", number)
	}
	c.spinner.SetMessage(c.styles.Dim.Render(message))

	c.mu.Lock()
	c.stopSpinner = c.spinner.Start(context.Background())
	c.mu.Unlock()
}

func (c *Console) OnReply(number int, reply string) {
	c.stop()
	fmt.Fprintln(c.opts.Out, c.styles.Header.Render("response"))
	fmt.Fprintln(c.opts.Out, c.renderReply(reply))
}

func (c *Console) OnExecute(number int, command string) {
	fmt.Fprintf(c.opts.Out, "%s Executing: %s\n", c.styles.Symbol(SymbolExec), command)
}

func (c *Console) OnResult(attempt repair.Attempt) {
	result := attempt.Result
	if result.Stdout != "" {
		fmt.Fprint(c.opts.Out, ensureNewline(result.Stdout))
	}
	if result.Stderr != "" {
		for _, line := range strings.Split(strings.TrimRight(result.Stderr, "\n"), "\n") {
			fmt.Fprintln(c.opts.Err, c.styles.Error.Render(line))
		}
	}

	symbol := SymbolSuccess
	if !result.Success() {
		symbol = SymbolError
	}
	meta := fmt.Sprintf("exit %d · %s", result.ExitCode, result.Duration.Round(time.Millisecond))
	fmt.Fprintf(c.opts.Out, "%s %s\n", c.styles.Symbol(symbol), c.styles.Dim.Render(meta))
}

func (c *Console) OnRetry(attempt repair.Attempt) {
	fmt.Fprintf(c.opts.Out, "%s %s\n", c.styles.Symbol(SymbolSystem), c.styles.Dim.Render("Fixing..."))
}

func (c *Console) OnSuccess(outcome repair.Outcome) {
	fmt.Fprintf(c.opts.Out, "%s %s\n",
		c.styles.Symbol(SymbolSuccess),
		c.styles.Success.Render(fmt.Sprintf("Done after %d %s", outcome.Attempts, plural(outcome.Attempts, "attempt"))),
	)
}

// Error prints a fatal error in the error style.
func (c *Console) Error(err error) {
	c.stop()
	fmt.Fprintf(c.opts.Err, "%s %s\n", c.styles.Symbol(SymbolError), c.styles.Error.Render(err.Error()))
}

// Info prints a system message.
func (c *Console) Info(message string) {
	fmt.Fprintf(c.opts.Out, "%s %s\n", c.styles.Symbol(SymbolSystem), c.styles.Dim.Render(message))
}

// Close stops the spinner if it is still running.
func (c *Console) Close() {
	c.stop()
}

func (c *Console) stop() {
	c.mu.Lock()
	stop := c.stopSpinner
	c.stopSpinner = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (c *Console) renderReply(reply string) string {
	if c.markdown != nil {
		if out, err := c.markdown.Render(reply); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return strings.TrimRight(reply, "\n")
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
