package ui

import (
	"fmt"
	"io"
	"time"
)

// RunSummary is what the CLI prints after a batch finishes.
type RunSummary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Elapsed   time.Duration
}

// Print writes the closing summary block.
func (s RunSummary) Print(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", Colorize(Bold, "Run complete"))
	fmt.Fprintf(w, "  total:     %d\n", s.Total)
	fmt.Fprintf(w, "  succeeded: %s\n", Successf("%d", s.Succeeded))
	if s.Failed > 0 {
		fmt.Fprintf(w, "  failed:    %s\n", Errorf("%d", s.Failed))
	} else {
		fmt.Fprintf(w, "  failed:    %d\n", s.Failed)
	}
	if s.Skipped > 0 {
		fmt.Fprintf(w, "  skipped:   %s\n", Warnf("%d", s.Skipped))
	} else {
		fmt.Fprintf(w, "  skipped:   %d\n", s.Skipped)
	}
	fmt.Fprintf(w, "  elapsed:   %s\n", s.Elapsed.Round(time.Millisecond))
}
