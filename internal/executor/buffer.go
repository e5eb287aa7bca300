package executor

import (
	"bytes"
	"sync"
)

// maxCapture bounds how much of each stream is kept per command.
const maxCapture = 1 << 20

const truncatedNote = "\n[output truncated]\n"

// outputBuffer collects one output stream. Writes past the limit are
// discarded but still reported as written so the command is not killed by
// a broken pipe.
type outputBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newOutputBuffer() *outputBuffer {
	return &outputBuffer{limit: maxCapture}
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *outputBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.truncated {
		return b.buf.String() + truncatedNote
	}
	return b.buf.String()
}
