package crawl

import (
	"strings"
	"testing"

	"seoscout/internal/htmlanalysis"
	"seoscout/pkg/seomodel"
)

func findIssue(issues []seomodel.Issue, kind seomodel.IssueKind) (seomodel.Issue, bool) {
	for _, iss := range issues {
		if iss.Kind == kind {
			return iss, true
		}
	}
	return seomodel.Issue{}, false
}

func TestEvaluateIssuesTitleMissingIsWarn(t *testing.T) {
	issues := evaluateIssues("https://example.com/", htmlanalysis.Result{})
	iss, ok := findIssue(issues, seomodel.IssueTitleMissing)
	if !ok {
		t.Fatal("expected a title_missing issue")
	}
	if iss.Severity != seomodel.SeverityWarn {
		t.Errorf("expected title_missing severity warn, got %s", iss.Severity)
	}
}

func TestEvaluateIssuesTitleTooShortThreshold(t *testing.T) {
	res := htmlanalysis.Result{
		Title:           strings.Repeat("a", titleMinLen-1),
		MetaDescription: strings.Repeat("b", metaDescMinLen),
	}
	issues := evaluateIssues("https://example.com/", res)
	if _, ok := findIssue(issues, seomodel.IssueTitleTooShort); !ok {
		t.Fatalf("expected title_too_short for a %d-char title, got %+v", len(res.Title), issues)
	}
}

func TestEvaluateIssuesTitleAtMinimumLengthIsClean(t *testing.T) {
	res := htmlanalysis.Result{
		Title:           strings.Repeat("a", titleMinLen),
		MetaDescription: strings.Repeat("b", metaDescMinLen),
	}
	issues := evaluateIssues("https://example.com/", res)
	if _, ok := findIssue(issues, seomodel.IssueTitleTooShort); ok {
		t.Fatalf("expected no title_too_short for a %d-char title at the minimum, got %+v", len(res.Title), issues)
	}
}

func TestEvaluateIssuesTitleTooLong(t *testing.T) {
	res := htmlanalysis.Result{
		Title:           strings.Repeat("a", titleMaxLen+1),
		MetaDescription: strings.Repeat("b", metaDescMinLen),
	}
	issues := evaluateIssues("https://example.com/", res)
	if _, ok := findIssue(issues, seomodel.IssueTitleTooLong); !ok {
		t.Fatalf("expected title_too_long, got %+v", issues)
	}
}

func TestEvaluateIssuesMetaDescriptionMissing(t *testing.T) {
	res := htmlanalysis.Result{Title: strings.Repeat("a", titleMinLen)}
	issues := evaluateIssues("https://example.com/", res)
	iss, ok := findIssue(issues, seomodel.IssueMetaDescriptionMissing)
	if !ok {
		t.Fatal("expected a meta_description_missing issue")
	}
	if iss.Severity != seomodel.SeverityWarn {
		t.Errorf("expected meta_description_missing severity warn, got %s", iss.Severity)
	}
}

func TestEvaluateIssuesMetaDescTooShortThreshold(t *testing.T) {
	res := htmlanalysis.Result{
		Title:           strings.Repeat("a", titleMinLen),
		MetaDescription: strings.Repeat("b", metaDescMinLen-1),
	}
	issues := evaluateIssues("https://example.com/", res)
	if _, ok := findIssue(issues, seomodel.IssueMetaDescTooShort); !ok {
		t.Fatalf("expected meta_desc_too_short for a %d-char description, got %+v", len(res.MetaDescription), issues)
	}
}

func TestEvaluateIssuesMetaDescAtMinimumLengthIsClean(t *testing.T) {
	res := htmlanalysis.Result{
		Title:           strings.Repeat("a", titleMinLen),
		MetaDescription: strings.Repeat("b", metaDescMinLen),
	}
	issues := evaluateIssues("https://example.com/", res)
	if _, ok := findIssue(issues, seomodel.IssueMetaDescTooShort); ok {
		t.Fatalf("expected no meta_desc_too_short for a %d-char description at the minimum, got %+v", len(res.MetaDescription), issues)
	}
}

func TestEvaluateIssuesMetaDescTooLong(t *testing.T) {
	res := htmlanalysis.Result{
		Title:           strings.Repeat("a", titleMinLen),
		MetaDescription: strings.Repeat("b", metaDescMaxLen+1),
	}
	issues := evaluateIssues("https://example.com/", res)
	if _, ok := findIssue(issues, seomodel.IssueMetaDescTooLong); !ok {
		t.Fatalf("expected meta_desc_too_long, got %+v", issues)
	}
}

func TestEvaluateIssuesH1Missing(t *testing.T) {
	res := htmlanalysis.Result{
		Title:           strings.Repeat("a", titleMinLen),
		MetaDescription: strings.Repeat("b", metaDescMinLen),
	}
	issues := evaluateIssues("https://example.com/", res)
	if _, ok := findIssue(issues, seomodel.IssueH1Missing); !ok {
		t.Fatalf("expected h1_missing, got %+v", issues)
	}
}

func TestEvaluateIssuesH1MultipleIsWarnWithCount(t *testing.T) {
	res := htmlanalysis.Result{
		Title:           strings.Repeat("a", titleMinLen),
		MetaDescription: strings.Repeat("b", metaDescMinLen),
		H1Count:         3,
	}
	issues := evaluateIssues("https://example.com/", res)
	iss, ok := findIssue(issues, seomodel.IssueH1Multiple)
	if !ok {
		t.Fatal("expected an h1_multiple issue")
	}
	if iss.Severity != seomodel.SeverityWarn {
		t.Errorf("expected h1_multiple severity warn, got %s", iss.Severity)
	}
	if iss.Count != 3 {
		t.Errorf("expected h1_multiple count 3, got %d", iss.Count)
	}
}

func TestEvaluateIssuesImagesMissingAlt(t *testing.T) {
	res := htmlanalysis.Result{
		Title:            strings.Repeat("a", titleMinLen),
		MetaDescription:  strings.Repeat("b", metaDescMinLen),
		H1Count:          1,
		ImagesMissingAlt: 2,
	}
	issues := evaluateIssues("https://example.com/", res)
	iss, ok := findIssue(issues, seomodel.IssueImagesMissingAlt)
	if !ok {
		t.Fatal("expected an images_missing_alt issue")
	}
	if iss.Count != 2 {
		t.Errorf("expected images_missing_alt count 2, got %d", iss.Count)
	}
}

func TestEvaluateIssuesThinContent(t *testing.T) {
	res := htmlanalysis.Result{
		Title:              strings.Repeat("a", titleMinLen),
		MetaDescription:    strings.Repeat("b", metaDescMinLen),
		H1Count:            1,
		TextIndicatorCount: htmlanalysis.ContentIndicatorThreshold - 1,
	}
	issues := evaluateIssues("https://example.com/", res)
	if _, ok := findIssue(issues, seomodel.IssueThinContent); !ok {
		t.Fatalf("expected thin_content below the threshold, got %+v", issues)
	}
}

func TestEvaluateIssuesOpenGraphMissingOnlyWhenApplicable(t *testing.T) {
	clean := htmlanalysis.Result{
		Title:              strings.Repeat("a", titleMinLen),
		MetaDescription:    strings.Repeat("b", metaDescMinLen),
		H1Count:            1,
		TextIndicatorCount: htmlanalysis.ContentIndicatorThreshold,
	}
	if issues := evaluateIssues("https://example.com/", clean); len(issues) != 0 {
		t.Fatalf("expected a fully clean page to produce no issues, got %+v", issues)
	}

	withOg := clean
	withOg.OpenGraph = map[string]string{"og:title": "set"}
	issues := evaluateIssues("https://example.com/", withOg)
	var missingTags []string
	for _, iss := range issues {
		if iss.Kind == seomodel.IssueOpenGraphMissing {
			missingTags = append(missingTags, iss.Tag)
		}
	}
	if len(missingTags) != len(seomodel.RequiredOgTags)-1 {
		t.Fatalf("expected all required og tags but og:title to be reported missing, got %v", missingTags)
	}
}
