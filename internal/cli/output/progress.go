package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ProgressBar displays completed/total operations on one terminal line.
type ProgressBar struct {
	w       io.Writer
	title   string
	total   int64
	current int64
	width   int
	step    int64 // render at most every step increments
	mu      sync.Mutex
}

// NewProgressBar creates a new progress bar for total operations.
func NewProgressBar(w io.Writer, title string, total int64) *ProgressBar {
	step := total / 100
	if step < 1 {
		step = 1
	}
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		width: 40,
		step:  step,
	}
}

// Increment adds n completed operations.
func (p *ProgressBar) Increment(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	before := p.current / p.step
	p.current += n
	if p.current/p.step != before {
		p.render()
	}
}

// Current returns the number of completed operations.
func (p *ProgressBar) Current() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish completes the progress bar.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render() {
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d", p.title, p.current)
		return
	}

	percent := float64(p.current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}
	filled := int(float64(p.width) * percent)

	fmt.Fprintf(p.w, "\r%s [%s%s] %3.0f%% (%d/%d)",
		p.title,
		strings.Repeat("#", filled),
		strings.Repeat(".", p.width-filled),
		percent*100,
		p.current,
		p.total,
	)
}
