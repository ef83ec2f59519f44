package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"seoscout/internal/crawl"
)

// TerminalProgress prints one line per page as the crawl runs. It
// satisfies crawl.ProgressSink's "never block the engine" requirement by
// writing synchronously but cheaply — a single carriage-return-terminated
// line — and by never doing anything that can block on its own (no
// network, no file I/O beyond the terminal itself).
//
// Grounded on haesookimDev-newscrawler/internal/api/session_manager.go's
// Session.Report: same ProcessedPages/PendingPages/TotalEnqueued fields,
// printed to a terminal instead of broadcast over SSE.
type TerminalProgress struct {
	w      io.Writer
	mu     sync.Mutex
	status *color.Color
}

// NewTerminalProgress builds a progress sink writing to w.
func NewTerminalProgress(w io.Writer) *TerminalProgress {
	return &TerminalProgress{w: w, status: color.New(color.FgCyan)}
}

// Report implements crawl.ProgressSink.
func (t *TerminalProgress) Report(evt crawl.ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Fprintf(t.w, "\r[%d/%d] depth=%d status=%d %s", evt.ProcessedPages, evt.TotalEnqueued, evt.Depth, evt.Status, evt.URL)
}

// Done prints a trailing newline so subsequent output starts on its own
// line.
func (t *TerminalProgress) Done() {
	fmt.Fprintln(t.w)
}
