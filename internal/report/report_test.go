package report

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"seoscout/pkg/seomodel"
)

func sampleReport() *seomodel.CrawlReport {
	start, _ := url.Parse("https://example.com/")
	return &seomodel.CrawlReport{
		StartURL:    start,
		StartURLStr: start.String(),
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Pages: []seomodel.PageResult{
			{URLString: start.String(), HTTPStatus: 200, Depth: 0, Title: "Example"},
		},
		Counters: seomodel.Counters{PagesCrawled: 1, LinksFound: 2, Broken: 1, Errors: 1},
		Issues: []seomodel.Issue{
			{Severity: seomodel.SeverityError, SourceURL: start.String(), Kind: seomodel.IssueBrokenLink, Detail: "link did not resolve successfully", Target: "https://example.com/missing"},
		},
	}
}

func TestRenderJSONProducesSnakeCaseSchema(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(), FormatJSON); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	for _, field := range []string{"start_url", "timestamp", "pages", "link_results", "summary", "issues"} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("expected field %q in JSON report", field)
		}
	}
}

func TestRenderTextDoesNotError(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(), FormatText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Crawl report for") {
		t.Errorf("expected a header line, got:\n%s", out)
	}
	if !strings.Contains(out, "broken_link") {
		t.Errorf("expected the issue table to mention broken_link, got:\n%s", out)
	}
}

func TestRenderTextReportsNoIssuesWhenEmpty(t *testing.T) {
	r := sampleReport()
	r.Issues = nil
	var buf bytes.Buffer
	if err := Render(&buf, r, FormatText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No issues found.") {
		t.Errorf("expected the no-issues message, got:\n%s", buf.String())
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(), Format("xml")); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}
