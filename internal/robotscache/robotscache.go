// Package robotscache caches per-SiteOrigin robots.txt policy for the
// lifetime of one crawl run, per spec.md §4.4.
//
// Grounded on haesookimDev-newscrawler/internal/robots.Agent (fail-open
// on any network/parse error, FindGroup(ua) falling back to FindGroup("*"))
// and rgyfghfgh-last-archive/spider/functions/robots.go (fetch once,
// cache by origin). Keyed here by urlnorm.SiteOrigin rather than a bare
// host string so scheme-default ports don't collide across origins.
package robotscache

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"seoscout/internal/fetch"
	"seoscout/internal/ratelimit"
	"seoscout/internal/urlnorm"
)

// Cache evaluates robots.txt rules, fetching and parsing each origin's
// policy exactly once.
type Cache struct {
	fetcher   fetch.Fetcher
	limiter   *ratelimit.Limiter
	userAgent string
	respect   bool
	timeout   time.Duration
	logger    *slog.Logger

	mu    sync.Mutex
	rules map[urlnorm.SiteOrigin]*robotstxt.RobotsData
	done  map[urlnorm.SiteOrigin]chan struct{}
}

// New constructs a robots cache. respect=false makes Allowed always
// return true without issuing any request.
func New(fetcher fetch.Fetcher, limiter *ratelimit.Limiter, userAgent string, respect bool, timeout time.Duration, logger *slog.Logger) *Cache {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Cache{
		fetcher:   fetcher,
		limiter:   limiter,
		userAgent: userAgent,
		respect:   respect,
		timeout:   timeout,
		logger:    logger,
		rules:     make(map[urlnorm.SiteOrigin]*robotstxt.RobotsData),
		done:      make(map[urlnorm.SiteOrigin]chan struct{}),
	}
}

// Allowed reports whether target may be fetched under the cached policy
// for its origin. A missing or 4xx/5xx robots.txt, or any transport
// error, is treated as "allow all."
func (c *Cache) Allowed(ctx context.Context, target *url.URL) bool {
	if !c.respect || target == nil {
		return true
	}

	origin := urlnorm.Origin(target)
	data := c.policyFor(ctx, origin, target)
	if data == nil {
		return true
	}

	group := data.FindGroup(c.userAgent)
	if group == nil {
		return true
	}
	return group.Test(target.Path)
}

// policyFor fetches and parses origin's robots.txt exactly once per run,
// serializing concurrent first-callers behind a per-origin gate so the
// cache is populated exactly once even under concurrent workers.
func (c *Cache) policyFor(ctx context.Context, origin urlnorm.SiteOrigin, target *url.URL) *robotstxt.RobotsData {
	c.mu.Lock()
	if data, ok := c.rules[origin]; ok {
		c.mu.Unlock()
		return data
	}
	if wait, inFlight := c.done[origin]; inFlight {
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil
		}
		c.mu.Lock()
		data := c.rules[origin]
		c.mu.Unlock()
		return data
	}
	wait := make(chan struct{})
	c.done[origin] = wait
	c.mu.Unlock()

	data := c.fetchAndParse(ctx, origin, target)

	c.mu.Lock()
	c.rules[origin] = data
	close(wait)
	c.mu.Unlock()

	return data
}

func (c *Cache) fetchAndParse(ctx context.Context, origin urlnorm.SiteOrigin, target *url.URL) *robotstxt.RobotsData {
	robotsURL := &url.URL{Scheme: target.Scheme, Host: origin.Host, Path: "/robots.txt"}
	if origin.Port != "" {
		robotsURL.Host = origin.Host + ":" + origin.Port
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil
	}

	resp, err := c.fetcher.Fetch(ctx, robotsURL, fetch.MethodGET, c.timeout)
	if err != nil {
		c.logf(robotsURL, err)
		return nil
	}
	if resp.StatusCode >= 400 {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		c.logf(robotsURL, err)
		return nil
	}
	return data
}

func (c *Cache) logf(robotsURL *url.URL, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("robots fetch failed, allowing all", "url", robotsURL.String(), "error", fmt.Sprint(err))
}
