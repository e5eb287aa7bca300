package render

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SpinnerFrames contains the braille spinner animation frames
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a single status line while the model is thinking.
type Spinner struct {
	writer   io.Writer
	frames   []string
	interval time.Duration
	style    lipgloss.Style

	mu      sync.Mutex
	running bool
	message string
	done    chan struct{}
}

func NewSpinner(writer io.Writer, style lipgloss.Style) *Spinner {
	return &Spinner{
		writer:   writer,
		frames:   SpinnerFrames,
		interval: 80 * time.Millisecond,
		style:    style,
	}
}

// SetMessage sets the message to display after the spinner
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Start begins the animation and returns a stop function. The stop function
// blocks until the line has been cleared.
func (s *Spinner) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return cancel
	}
	s.running = true
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.run(ctx)

	return func() {
		cancel()
		<-done
	}
}

func (s *Spinner) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	frameIndex := 0
	s.renderFrame(frameIndex)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(s.writer, "\r\033[K")
			s.mu.Lock()
			s.running = false
			done := s.done
			s.mu.Unlock()
			close(done)
			return
		case <-ticker.C:
			frameIndex = (frameIndex + 1) % len(s.frames)
			s.renderFrame(frameIndex)
		}
	}
}

func (s *Spinner) renderFrame(frameIndex int) {
	s.mu.Lock()
	message := s.message
	s.mu.Unlock()

	frame := s.style.Render(s.frames[frameIndex])
	if message != "" {
		fmt.Fprintf(s.writer, "\r\033[K%s %s", frame, message)
	} else {
		fmt.Fprintf(s.writer, "\r\033[K%s", frame)
	}
}
