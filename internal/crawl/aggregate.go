package crawl

import "seoscout/pkg/seomodel"

// buildReport merges every recorded PageResult and the validator's
// LinkResults into the single CrawlReport value a run produces.
//
// Per spec.md §7, broken links surface as BrokenLink issues on the
// *referring* page(s) — not as a standalone issue disconnected from
// where the link was found — so this joins each page's recorded
// outbound links against the validator's results by link-equivalence
// key before assembling the final issue list. Counters are strict
// tallies over issues (by severity) and link_results (by
// classification), never estimates.
func (e *Engine) buildReport() *seomodel.CrawlReport {
	e.pagesMu.Lock()
	pages := make([]seomodel.PageResult, len(e.pages))
	copy(pages, e.pages)
	e.pagesMu.Unlock()

	links := e.validator.Results()
	byKey := make(map[string]seomodel.LinkResult, len(links))
	for _, l := range links {
		if l.URL == nil {
			continue
		}
		byKey[linkKey(l.URL, e.cfg.KeepFragments)] = l
	}

	e.disallowedMu.Lock()
	disallowed := make(map[string]struct{}, len(e.disallowed))
	for k := range e.disallowed {
		disallowed[k] = struct{}{}
	}
	e.disallowedMu.Unlock()

	counters := seomodel.Counters{StatusCodes: make(map[int]int)}
	var issues []seomodel.Issue

	for i := range pages {
		p := &pages[i]
		counters.PagesCrawled++
		if p.HTTPStatus != 0 {
			counters.StatusCodes[p.HTTPStatus]++
		}

		for _, target := range p.OutboundLinks {
			tkey := linkKey(target, e.cfg.KeepFragments)
			if lr, ok := byKey[tkey]; ok {
				if iss, attach := linkIssue(p.URLString, lr, e.cfg.IgnoreRedirects); attach {
					p.Issues = append(p.Issues, iss)
				}
			}
			if _, blocked := disallowed[tkey]; blocked {
				p.Issues = append(p.Issues, seomodel.Issue{
					Severity:  seomodel.SeverityInfo,
					SourceURL: p.URLString,
					Kind:      seomodel.IssueRobotsDisallowed,
					Detail:    "crawling disallowed by robots.txt",
					Target:    target.String(),
				})
			}
		}

		for _, iss := range p.Issues {
			issues = append(issues, iss)
			tallySeverity(&counters, iss.Severity)
		}
	}

	counters.LinksFound = len(links)
	for _, l := range links {
		if l.Classification == seomodel.LinkBroken || l.Classification == seomodel.LinkUnreachable {
			counters.Broken++
		}
	}

	return &seomodel.CrawlReport{
		StartURL:    e.cfg.StartURL,
		StartURLStr: e.cfg.StartURL.String(),
		Pages:       pages,
		LinkResults: links,
		Counters:    counters,
		Issues:      issues,
	}
}

// linkIssue derives the Issue a validated link contributes to its
// referring page, or reports attach=false if the link warrants none.
func linkIssue(sourceURL string, lr seomodel.LinkResult, ignoreRedirects bool) (seomodel.Issue, bool) {
	switch lr.Classification {
	case seomodel.LinkBroken, seomodel.LinkUnreachable:
		return seomodel.Issue{
			Severity:  seomodel.SeverityError,
			SourceURL: sourceURL,
			Kind:      seomodel.IssueBrokenLink,
			Detail:    "link did not resolve successfully",
			Target:    lr.URLString,
			Status:    lr.HTTPStatus,
		}, true
	case seomodel.LinkRedirect:
		if ignoreRedirects {
			return seomodel.Issue{}, false
		}
		return seomodel.Issue{
			Severity:  seomodel.SeverityInfo,
			SourceURL: sourceURL,
			Kind:      seomodel.IssueRedirectLink,
			Detail:    "link redirects before resolving",
			Target:    lr.URLString,
			Status:    lr.HTTPStatus,
			Count:     lr.RedirectChainLength,
		}, true
	default:
		return seomodel.Issue{}, false
	}
}

func tallySeverity(c *seomodel.Counters, sev seomodel.Severity) {
	switch sev {
	case seomodel.SeverityError:
		c.Errors++
	case seomodel.SeverityWarn:
		c.Warnings++
	case seomodel.SeverityInfo:
		c.Info++
	}
}
