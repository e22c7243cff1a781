package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress draws a running file and byte count on a single terminal line.
// It is safe for concurrent use by scan workers.
type Progress struct {
	w        io.Writer
	title    string
	interval time.Duration

	mu    sync.Mutex
	files int64
	bytes int64
	last  time.Time
}

// NewProgress creates a progress line redrawn at most every interval.
func NewProgress(w io.Writer, title string, interval time.Duration) *Progress {
	return &Progress{w: w, title: title, interval: interval}
}

// Add counts one hashed file of n bytes.
func (p *Progress) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files++
	p.bytes += n
	if now := time.Now(); now.Sub(p.last) >= p.interval {
		p.last = now
		p.render()
	}
}

// Finish draws the final counts and ends the line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render()
	fmt.Fprintln(p.w)
}

func (p *Progress) render() {
	fmt.Fprintf(p.w, "\r%s %d files, %s", p.title, p.files, FormatBytes(p.bytes))
}

// FormatBytes formats bytes to a human readable string.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
