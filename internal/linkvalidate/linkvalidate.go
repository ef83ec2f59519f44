// Package linkvalidate implements the concurrent link-validation worker
// set of spec.md §4.6: every unique link discovered by any crawled page
// is validated once, via GET (HEAD is avoided — spec.md notes many
// servers misreport HEAD status), and classified.
//
// Grounded on Bahjat-page-insight-tool/internal/pageinsight/scanner.go's
// CheckLinksWithWorkerPool: a jobs channel feeding a fixed worker count,
// a results channel drained by the caller. Generalized from a boolean
// "inaccessible" signal to the full LinkResult classification, and from
// a private http.Client to the shared Fetcher/rate limiter the crawl
// engine also uses — spec.md §4.6 requires the validator to "share the
// same rate limiter and concurrency dispatcher as the crawler."
package linkvalidate

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"seoscout/internal/fetch"
	"seoscout/internal/ratelimit"
	"seoscout/pkg/seomodel"
)

// Submitter schedules a validation job onto the crawl's shared
// dispatcher. The crawl engine's Dispatcher satisfies this.
type Submitter interface {
	Submit(ctx context.Context, fn func(workerCtx context.Context)) error
}

// Validator classifies every link submitted to it exactly once.
type Validator struct {
	fetcher    fetch.Fetcher
	limiter    *ratelimit.Limiter
	dispatcher Submitter
	timeout    time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	submitted map[string]struct{}
	pending   sync.WaitGroup

	resultsMu sync.Mutex
	results   []seomodel.LinkResult
}

// New builds a Validator that submits jobs through the shared dispatcher.
func New(fetcher fetch.Fetcher, limiter *ratelimit.Limiter, dispatcher Submitter, timeout time.Duration, logger *slog.Logger) *Validator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Validator{
		fetcher:    fetcher,
		limiter:    limiter,
		dispatcher: dispatcher,
		timeout:    timeout,
		logger:     logger,
		submitted:  make(map[string]struct{}),
	}
}

// Submit enqueues link for validation, deduplicated by link-equivalence
// key. Submitting the same key twice is a no-op; the caller is
// responsible for computing the key (spec.md link-equivalence, §3) so
// this package stays agnostic of the keep_fragments setting.
func (v *Validator) Submit(ctx context.Context, key string, link *url.URL) {
	v.mu.Lock()
	if _, seen := v.submitted[key]; seen {
		v.mu.Unlock()
		return
	}
	v.submitted[key] = struct{}{}
	v.mu.Unlock()

	scheme := strings.ToLower(link.Scheme)
	if scheme != "http" && scheme != "https" {
		v.record(seomodel.LinkResult{
			URL:            link,
			URLString:      link.String(),
			Classification: seomodel.LinkSkipped,
		})
		return
	}

	v.pending.Add(1)
	err := v.dispatcher.Submit(ctx, func(workerCtx context.Context) {
		defer v.pending.Done()
		v.validate(workerCtx, link)
	})
	if err != nil {
		v.pending.Done()
		if v.logger != nil {
			v.logger.Debug("link validation submit failed", "url", link.String(), "error", err)
		}
	}
}

func (v *Validator) validate(ctx context.Context, link *url.URL) {
	if err := v.limiter.Acquire(ctx); err != nil {
		return
	}

	resp, err := v.fetcher.Fetch(ctx, link, fetch.MethodGET, v.timeout)
	if err != nil {
		v.record(seomodel.LinkResult{
			URL:            link,
			URLString:      link.String(),
			Classification: seomodel.LinkUnreachable,
		})
		return
	}

	classification := classify(resp.StatusCode, resp.RedirectHops)
	v.record(seomodel.LinkResult{
		URL:                 link,
		URLString:           link.String(),
		HTTPStatus:          resp.StatusCode,
		RedirectChainLength: resp.RedirectHops,
		Classification:      classification,
	})
}

func classify(status, hops int) seomodel.LinkClassification {
	switch {
	case status >= 400:
		return seomodel.LinkBroken
	case hops > 0:
		return seomodel.LinkRedirect
	case status >= 200 && status < 300:
		return seomodel.LinkOk
	case status >= 300 && status < 400:
		return seomodel.LinkRedirect
	default:
		return seomodel.LinkBroken
	}
}

func (v *Validator) record(r seomodel.LinkResult) {
	v.resultsMu.Lock()
	v.results = append(v.results, r)
	v.resultsMu.Unlock()
}

// Wait blocks until every submitted validation has completed.
func (v *Validator) Wait() {
	v.pending.Wait()
}

// Results returns every LinkResult recorded so far. Callers should call
// Wait first to observe the complete set.
func (v *Validator) Results() []seomodel.LinkResult {
	v.resultsMu.Lock()
	defer v.resultsMu.Unlock()
	out := make([]seomodel.LinkResult, len(v.results))
	copy(out, v.results)
	return out
}
