// Package prompt asks the user for the command they want.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const Label = "Your dream command:"

// ErrCancelled is returned when the user aborts the prompt.
var ErrCancelled = errors.New("prompt cancelled")

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// ReadIntent asks once for the user's wish. With interactive set it runs a
// single-line text input; otherwise it reads one line from in.
func ReadIntent(ctx context.Context, in io.Reader, out io.Writer, interactive bool) (string, error) {
	if interactive {
		return readInteractive(ctx, in, out)
	}
	return readLine(in, out)
}

func readLine(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, Label+" ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("failed to read intent: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func readInteractive(ctx context.Context, in io.Reader, out io.Writer) (string, error) {
	p := tea.NewProgram(newModel(), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to run prompt: %w", err)
	}

	m := final.(model)
	if m.cancelled {
		return "", ErrCancelled
	}
	fmt.Fprintf(out, "%s %s\n", Label, m.value())
	return m.value(), nil
}

var labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)

type model struct {
	input     textinput.Model
	submitted bool
	cancelled bool
}

func newModel() model {
	ti := textinput.New()
	ti.Placeholder = "list the five largest files in this folder"
	ti.Prompt = labelStyle.Render(Label) + " "
	ti.CharLimit = 1000
	ti.Focus()
	return model{input: ti}
}

func (m model) value() string {
	return strings.TrimSpace(m.input.Value())
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			if m.value() == "" {
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	return m.input.View() + "\n"
}
