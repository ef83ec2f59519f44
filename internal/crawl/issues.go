package crawl

import (
	"fmt"

	"seoscout/internal/htmlanalysis"
	"seoscout/pkg/seomodel"
)

// Length thresholds for title and meta description follow the same
// shape as kingelvyn-seo-optimizer/internal/analyzer/types.go's
// TitleAnalysis/MetaAnalysis (a length field scored against a band) —
// generalized here to the conventional SEO bands rather than that
// repo's bespoke scoring curve.
const (
	titleMinLen    = 50
	titleMaxLen    = 60
	metaDescMinLen = 150
	metaDescMaxLen = 160
)

// evaluateIssues runs every threshold check spec.md §4.5 names against
// one page's analysis result, in a fixed order so output is deterministic.
func evaluateIssues(sourceURL string, res htmlanalysis.Result) []seomodel.Issue {
	var issues []seomodel.Issue

	switch {
	case res.Title == "":
		issues = append(issues, issue(seomodel.SeverityWarn, sourceURL, seomodel.IssueTitleMissing, "page has no <title>"))
	case len(res.Title) < titleMinLen:
		issues = append(issues, issue(seomodel.SeverityWarn, sourceURL, seomodel.IssueTitleTooShort,
			fmt.Sprintf("title is %d characters, below the recommended minimum of %d", len(res.Title), titleMinLen)))
	case len(res.Title) > titleMaxLen:
		issues = append(issues, issue(seomodel.SeverityWarn, sourceURL, seomodel.IssueTitleTooLong,
			fmt.Sprintf("title is %d characters, above the recommended maximum of %d", len(res.Title), titleMaxLen)))
	}

	switch {
	case res.MetaDescription == "":
		issues = append(issues, issue(seomodel.SeverityWarn, sourceURL, seomodel.IssueMetaDescriptionMissing, "page has no meta description"))
	case len(res.MetaDescription) < metaDescMinLen:
		issues = append(issues, issue(seomodel.SeverityInfo, sourceURL, seomodel.IssueMetaDescTooShort,
			fmt.Sprintf("meta description is %d characters, below the recommended minimum of %d", len(res.MetaDescription), metaDescMinLen)))
	case len(res.MetaDescription) > metaDescMaxLen:
		issues = append(issues, issue(seomodel.SeverityInfo, sourceURL, seomodel.IssueMetaDescTooLong,
			fmt.Sprintf("meta description is %d characters, above the recommended maximum of %d", len(res.MetaDescription), metaDescMaxLen)))
	}

	switch {
	case res.H1Count == 0:
		issues = append(issues, issue(seomodel.SeverityWarn, sourceURL, seomodel.IssueH1Missing, "page has no <h1>"))
	case res.H1Count > 1:
		iss := issue(seomodel.SeverityWarn, sourceURL, seomodel.IssueH1Multiple,
			fmt.Sprintf("page has %d <h1> elements, expected one", res.H1Count))
		iss.Count = res.H1Count
		issues = append(issues, iss)
	}

	if res.ImagesMissingAlt > 0 {
		iss := issue(seomodel.SeverityWarn, sourceURL, seomodel.IssueImagesMissingAlt,
			fmt.Sprintf("%d image(s) missing alt text", res.ImagesMissingAlt))
		iss.Count = res.ImagesMissingAlt
		issues = append(issues, iss)
	}

	if res.ThinContent() {
		issues = append(issues, issue(seomodel.SeverityInfo, sourceURL, seomodel.IssueThinContent,
			fmt.Sprintf("only %d content indicator(s) found, below the threshold of %d", res.TextIndicatorCount, htmlanalysis.ContentIndicatorThreshold)))
	}

	if og, missing := missingOgTags(res.OpenGraph); og {
		for _, tag := range missing {
			iss := issue(seomodel.SeverityInfo, sourceURL, seomodel.IssueOpenGraphMissing,
				fmt.Sprintf("missing Open Graph tag %s", tag))
			iss.Tag = tag
			issues = append(issues, iss)
		}
	}

	return issues
}

func missingOgTags(tags map[string]string) (applicable bool, missing []string) {
	if len(tags) == 0 {
		return false, nil
	}
	for _, required := range seomodel.RequiredOgTags {
		if _, ok := tags[required]; !ok {
			missing = append(missing, required)
		}
	}
	return true, missing
}

func issue(sev seomodel.Severity, sourceURL string, kind seomodel.IssueKind, detail string) seomodel.Issue {
	return seomodel.Issue{Severity: sev, SourceURL: sourceURL, Kind: kind, Detail: detail}
}
