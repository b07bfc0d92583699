package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const progressWidth = 30

// Progress counts completed items toward a known total.
// On a terminal it redraws a bar in place; otherwise it prints nothing
// until Finish.
type Progress struct {
	w       io.Writer
	title   string
	total   int
	current int
	active  bool
	mu      sync.Mutex
}

// NewProgress creates a progress counter for total items.
func NewProgress(w io.Writer, title string, total int) *Progress {
	return &Progress{
		w:      w,
		title:  title,
		total:  total,
		active: IsTerminal(w),
	}
}

// Step marks one item done.
func (p *Progress) Step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current < p.total {
		p.current++
	}
	if p.active {
		fmt.Fprint(p.w, "\r"+p.line())
	}
}

// Finish prints the final state on its own line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		fmt.Fprint(p.w, "\r")
	}
	fmt.Fprintln(p.w, p.line())
}

func (p *Progress) line() string {
	if p.total <= 0 {
		return fmt.Sprintf("%s %d", p.title, p.current)
	}
	filled := progressWidth * p.current / p.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressWidth-filled)
	return fmt.Sprintf("%s [%s] %d/%d", p.title, bar, p.current, p.total)
}
