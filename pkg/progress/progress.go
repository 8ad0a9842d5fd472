// Package progress renders a single-line console progress bar for
// batch runs.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"mdc/pkg/ui"
)

const barWidth = 30

// Bar is a thread-safe console progress bar.
type Bar struct {
	mu      sync.Mutex
	w       io.Writer
	total   int
	current int
	start   time.Time
	done    bool
}

// NewBar creates a bar for total steps writing to w.
func NewBar(w io.Writer, total int) *Bar {
	return &Bar{w: w, total: total, start: time.Now()}
}

// Set moves the bar to an absolute position and redraws it.
func (b *Bar) Set(current int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	if current > b.total {
		current = b.total
	}
	b.current = current
	b.render()
	if b.current == b.total {
		b.done = true
		fmt.Fprintln(b.w)
	}
}

// Finish forces the bar to completion.
func (b *Bar) Finish() {
	b.Set(b.total)
}

func (b *Bar) render() {
	if b.total <= 0 {
		return
	}
	ratio := float64(b.current) / float64(b.total)
	filled := int(ratio * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	eta := "--"
	if b.current > 0 && b.current < b.total {
		perItem := time.Since(b.start) / time.Duration(b.current)
		eta = (perItem * time.Duration(b.total-b.current)).Round(time.Second).String()
	}
	fmt.Fprintf(b.w, "\r%s %3.0f%% (%d/%d) eta %s ",
		ui.Colorize(ui.Cyan, bar), ratio*100, b.current, b.total, eta)
}
