package log

import (
	"fmt"
	"io"
	"sync"
)

// Reporter prints human-readable console lines (progress and summaries).
// Unlike the structured logger its output has no level or timestamp.
type Reporter interface {
	Printf(format string, args ...any)
}

type reporter struct {
	w  io.Writer
	mu sync.Mutex
}

// NewReporter creates a Reporter writing to w. If w is nil, returns a no-op reporter.
func NewReporter(w io.Writer) Reporter {
	return &reporter{w: w}
}

// Printf writes one line; a trailing newline is added when missing.
func (r *reporter) Printf(format string, args ...any) {
	if r.w == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line += "\n"
	}

	r.mu.Lock()
	_, _ = io.WriteString(r.w, line)
	r.mu.Unlock()
}
