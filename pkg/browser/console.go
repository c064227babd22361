package browser

import (
	"strings"
	"sync"
)

// ConsoleLog is the append-only record of console lines across sessions
type ConsoleLog struct {
	mu    sync.RWMutex
	lines []string
}

// Append records a formatted console line
func (c *ConsoleLog) Append(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

// Lines returns a copy of the recorded lines in arrival order
func (c *ConsoleLog) Lines() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Text joins the recorded lines with newlines
func (c *ConsoleLog) Text() string {
	return strings.Join(c.Lines(), "\n")
}

// Len returns the number of recorded lines
func (c *ConsoleLog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines)
}
