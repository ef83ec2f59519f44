package crawl

// ProgressEvent is a point-in-time snapshot of crawl progress, fired
// after each page completes.
//
// Grounded on haesookimDev-newscrawler/internal/api/types.go's
// crawler.ProgressEvent (ProcessedPages/PendingPages/TotalEnqueued/URL/
// Domain) — same fields, since the CLI's terminal progress line needs
// exactly what the teacher's SSE broadcast needed, minus the session-id
// plumbing that only made sense for a multi-tenant HTTP server.
type ProgressEvent struct {
	ProcessedPages int
	PendingPages   int
	TotalEnqueued  int
	URL            string
	Depth          int
	Status         int
}

// ProgressSink receives progress events. Implementations must return
// immediately — spec.md §9 requires the sink to never block the engine,
// so a slow or blocking Report makes the whole crawl slow. The engine
// calls Report synchronously from worker goroutines; an implementation
// that needs to do slow work (writing to a terminal, over a network)
// must buffer or drop internally rather than push that cost onto the
// caller.
type ProgressSink interface {
	Report(evt ProgressEvent)
}

// NopSink discards every event. It is the default when no sink is wired.
type NopSink struct{}

// Report implements ProgressSink.
func (NopSink) Report(ProgressEvent) {}
