// Package extract pulls an executable snippet out of a markdown reply.
//
// A fence is a line that, after leading whitespace, starts with three or more
// backticks. Anything after the backticks on the opening line is the info
// string (usually a language tag) and is not part of the block. The block is
// closed by the first later line that consists only of backticks, at least as
// many as the opening run. Backticks in the middle of a line never open a block,
// and an opening fence without a closing line is ignored.
package extract

import (
	"strings"
)

// Block is one fenced code block found in a reply.
type Block struct {
	Lang string
	Body string
}

// Code returns the body of the first fenced block with non-blank content.
// If the reply has no such block, the reply itself is returned unchanged.
func Code(reply string) string {
	for _, block := range Blocks(reply) {
		if strings.TrimSpace(block.Body) != "" {
			return block.Body
		}
	}
	return reply
}

// Blocks returns every complete fenced block in order of appearance.
func Blocks(reply string) []Block {
	lines := splitLines(reply)

	var blocks []Block
	for i := 0; i < len(lines); i++ {
		width, info, ok := openingFence(lines[i])
		if !ok {
			continue
		}

		end := closingFence(lines, i+1, width)
		if end < 0 {
			// Unterminated; treat the line as text.
			continue
		}

		blocks = append(blocks, Block{
			Lang: info,
			Body: strings.Join(lines[i+1:end], "\n"),
		})
		i = end
	}
	return blocks
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// openingFence reports the backtick run width and info string of an opening fence line.
func openingFence(line string) (int, string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	width := countBackticks(trimmed)
	if width < 3 {
		return 0, "", false
	}
	info := strings.TrimSpace(trimmed[width:])
	if strings.Contains(info, "`") {
		// ```ls -la``` on one line is inline code, not a fence.
		return 0, "", false
	}
	return width, info, true
}

func closingFence(lines []string, from, width int) int {
	for j := from; j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		n := countBackticks(trimmed)
		if n >= width && n == len(trimmed) {
			return j
		}
	}
	return -1
}

func countBackticks(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}
