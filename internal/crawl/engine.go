package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"seoscout/internal/fetch"
	"seoscout/internal/htmlanalysis"
	"seoscout/internal/linkvalidate"
	"seoscout/internal/ratelimit"
	"seoscout/internal/robotscache"
	"seoscout/internal/urlnorm"
	"seoscout/pkg/seomodel"
)

// Config is everything the engine needs, the generalized union of the
// teacher's config.Config.Crawl block and spec.md §6's flag table.
type Config struct {
	StartURL         *url.URL
	MaxDepth         int
	MaxPages         int
	Concurrency      int
	QueueSize        int
	RateLimitRPS     float64
	RespectRobotsTxt bool
	FollowExternal   bool
	IgnoreRedirects  bool
	KeepFragments    bool
	IncludePatterns  []string
	ExcludePatterns  []string
	UserAgent        string
	RequestTimeout   time.Duration
	Headers          map[string]string
}

// Option configures optional Engine behavior, matching the functional
// option shape haesookimDev-newscrawler/internal/api/session_manager.go
// uses to wire a ProgressSink onto crawler.NewEngine.
type Option func(*Engine)

// WithProgressSink registers a sink for per-page progress events.
func WithProgressSink(sink ProgressSink) Option {
	return func(e *Engine) { e.progress = sink }
}

// WithLogger overrides the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// Engine orchestrates fetching, analysis, link validation, and the
// report aggregation, per spec.md §4.7.
//
// Grounded on haesookimDev-newscrawler/internal/crawler.Engine: the same
// enqueue/handleRequest/shouldVisit/extractLinks shape, generalized from
// "crawl, process, persist" to "crawl, analyze, validate links, collect
// issues" — there is no storage pipeline because spec.md's Non-goals
// exclude persistence between runs; the report aggregator is the
// in-memory equivalent.
type Engine struct {
	cfg Config

	fetcher    fetch.Fetcher
	limiter    *ratelimit.Limiter
	robots     *robotscache.Cache
	validator  *linkvalidate.Validator
	dispatcher *Dispatcher
	logger     *slog.Logger
	progress   ProgressSink

	includePatterns []*regexp.Regexp
	excludePatterns []*regexp.Regexp

	maxPages int64
	enqueued atomic.Int64
	done     atomic.Int64

	visitedMu sync.Mutex
	visited   map[string]struct{}

	startOnce   sync.Once
	startOrigin urlnorm.SiteOrigin

	pagesMu sync.Mutex
	pages   []seomodel.PageResult

	disallowedMu sync.Mutex
	disallowed   map[string]struct{}

	wg sync.WaitGroup
}

// NewEngine builds a crawl engine and everything it depends on: the
// shared fetcher, rate limiter, robots cache, link validator, and
// dispatcher.
func NewEngine(cfg Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if cfg.StartURL == nil {
		return nil, fmt.Errorf("crawl: start URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpFetcher := fetch.NewHTTPFetcher(fetch.Options{
		UserAgent:    cfg.UserAgent,
		Headers:      cfg.Headers,
		MaxBodyBytes: 6 * 1024 * 1024,
	})

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	dispatcher, err := NewDispatcher(context.Background(), concurrency, cfg.QueueSize)
	if err != nil {
		return nil, fmt.Errorf("crawl: build dispatcher: %w", err)
	}

	limiter := ratelimit.New(cfg.RateLimitRPS)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	robots := robotscache.New(httpFetcher, limiter, cfg.UserAgent, cfg.RespectRobotsTxt, timeout, logger)
	validator := linkvalidate.New(httpFetcher, limiter, dispatcher, timeout, logger)

	include, err := compilePatterns(cfg.IncludePatterns)
	if err != nil {
		return nil, fmt.Errorf("crawl: invalid include pattern: %w", err)
	}
	exclude, err := compilePatterns(cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("crawl: invalid exclude pattern: %w", err)
	}

	maxPages := int64(cfg.MaxPages)
	if maxPages <= 0 {
		maxPages = math.MaxInt64
	}

	e := &Engine{
		cfg:             cfg,
		fetcher:         httpFetcher,
		limiter:         limiter,
		robots:          robots,
		validator:       validator,
		dispatcher:      dispatcher,
		logger:          logger,
		progress:        NopSink{},
		includePatterns: include,
		excludePatterns: exclude,
		maxPages:        maxPages,
		visited:         make(map[string]struct{}),
		disallowed:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run crawls from cfg.StartURL to completion, waits for every link
// validation submitted along the way, and returns the aggregated report.
func (e *Engine) Run(ctx context.Context) (*seomodel.CrawlReport, error) {
	defer e.dispatcher.Close()

	e.enqueue(ctx, cloneURL(e.cfg.StartURL), 0)

	waitDone := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(waitDone)
	}()

	select {
	case <-ctx.Done():
		<-waitDone
		e.validator.Wait()
		return e.buildReport(), ctx.Err()
	case <-waitDone:
		e.validator.Wait()
		return e.buildReport(), nil
	}
}

func cloneURL(u *url.URL) *url.URL {
	cp := *u
	return &cp
}

func linkKey(u *url.URL, keepFragments bool) string {
	return urlnorm.EquivalenceKey(u, keepFragments)
}

func (e *Engine) enqueue(ctx context.Context, target *url.URL, depth int) {
	if depth > e.cfg.MaxDepth {
		return
	}

	key := urlnorm.EquivalenceKey(target, e.cfg.KeepFragments)
	e.visitedMu.Lock()
	if _, seen := e.visited[key]; seen {
		e.visitedMu.Unlock()
		return
	}
	e.visited[key] = struct{}{}
	e.visitedMu.Unlock()

	// spec.md §4.7 step 2: a robots-disallowed URL is dropped before a
	// PageResult skeleton is ever built, so it never reaches crawlPage,
	// is never counted toward pages_crawled, and never burns max_pages
	// budget. The disallow is recorded here and joined against every
	// referring page's outbound links in buildReport, mirroring how a
	// broken link attaches to its referrer rather than to itself.
	if !e.robots.Allowed(ctx, target) {
		e.disallowedMu.Lock()
		e.disallowed[key] = struct{}{}
		e.disallowedMu.Unlock()
		return
	}

	for {
		cur := e.enqueued.Load()
		if cur >= e.maxPages {
			return
		}
		if e.enqueued.CompareAndSwap(cur, cur+1) {
			break
		}
	}

	e.wg.Add(1)
	if err := e.dispatcher.Submit(ctx, func(workerCtx context.Context) {
		defer e.wg.Done()
		e.crawlPage(workerCtx, target, depth)
	}); err != nil {
		e.wg.Done()
		e.enqueued.Add(-1)
		if e.logger != nil {
			e.logger.Debug("enqueue failed", "url", target.String(), "error", err)
		}
	}
}

func (e *Engine) crawlPage(ctx context.Context, target *url.URL, depth int) {
	result := seomodel.PageResult{
		URL:       target,
		URLString: target.String(),
		Depth:     depth,
	}

	if err := e.limiter.Acquire(ctx); err != nil {
		e.recordPage(result)
		return
	}

	resp, err := e.fetcher.Fetch(ctx, target, fetch.MethodGET, e.requestTimeout())
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("page fetch failed", "url", target.String(), "error", err)
		}
		e.recordPage(result)
		e.reportProgress(target, depth, 0)
		return
	}

	result.FinalURL = resp.FinalURL
	result.FinalURLString = resp.FinalURL.String()
	result.HTTPStatus = resp.StatusCode
	result.ContentType = resp.ContentType

	finalOrigin := urlnorm.Origin(resp.FinalURL)
	if depth == 0 {
		e.startOnce.Do(func() { e.startOrigin = finalOrigin })
	}

	offSite := !urlnorm.SameSite(finalOrigin, e.startOrigin)
	isHTML := strings.Contains(strings.ToLower(resp.ContentType), "html")

	if offSite || !isHTML || resp.StatusCode >= 400 {
		e.recordPage(result)
		e.reportProgress(target, depth, resp.StatusCode)
		return
	}

	analysis := htmlanalysis.Analyze(resp.Body)
	result.Title = analysis.Title
	result.MetaDescription = analysis.MetaDescription
	result.Lang = analysis.Lang
	result.H1Count = analysis.H1Count
	result.ImagesMissingAlt = analysis.ImagesMissingAlt
	result.TextIndicatorCount = analysis.TextIndicatorCount
	result.OpenGraph = seomodel.OgState{Tags: analysis.OpenGraph}
	if len(analysis.OpenGraph) > 0 {
		result.OpenGraph.Applicable = true
	}
	result.Issues = evaluateIssues(target.String(), analysis)

	for _, link := range analysis.Links {
		resolved, err := urlnorm.Normalize(link.Href, resp.FinalURL, e.cfg.KeepFragments)
		if err != nil {
			continue
		}
		if !e.acceptLink(resp.FinalURL, resolved) {
			continue
		}

		result.OutboundLinks = append(result.OutboundLinks, resolved)
		result.OutboundLinkURLs = append(result.OutboundLinkURLs, resolved.String())

		linkKey := urlnorm.EquivalenceKey(resolved, e.cfg.KeepFragments)
		e.validator.Submit(ctx, linkKey, resolved)

		if urlnorm.SameSite(urlnorm.Origin(resolved), e.startOrigin) {
			e.enqueue(ctx, resolved, depth+1)
		} else if e.cfg.FollowExternal {
			e.enqueue(ctx, resolved, depth+1)
		}
	}

	e.recordPage(result)
	e.reportProgress(target, depth, resp.StatusCode)
}

func (e *Engine) requestTimeout() time.Duration {
	if e.cfg.RequestTimeout > 0 {
		return e.cfg.RequestTimeout
	}
	return 15 * time.Second
}

func (e *Engine) acceptLink(base, target *url.URL) bool {
	scheme := strings.ToLower(target.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	if len(e.includePatterns) > 0 {
		matched := false
		for _, pat := range e.includePatterns {
			if pat.MatchString(target.String()) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, pat := range e.excludePatterns {
		if pat.MatchString(target.String()) {
			return false
		}
	}
	return true
}

func (e *Engine) recordPage(p seomodel.PageResult) {
	e.pagesMu.Lock()
	e.pages = append(e.pages, p)
	e.pagesMu.Unlock()
	e.done.Add(1)
}

func (e *Engine) reportProgress(target *url.URL, depth, status int) {
	if e.progress == nil {
		return
	}
	e.progress.Report(ProgressEvent{
		ProcessedPages: int(e.done.Load()),
		PendingPages:   int(e.enqueued.Load() - e.done.Load()),
		TotalEnqueued:  int(e.enqueued.Load()),
		URL:            target.String(),
		Depth:          depth,
		Status:         status,
	})
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		pat, err := regexp.Compile(raw)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, pat)
	}
	return compiled, nil
}
