// Package report renders a seomodel.CrawlReport to the formats spec.md
// §6 names: JSON (a stable, bit-level schema) and text (informational,
// a human-facing summary table).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"seoscout/pkg/seomodel"
)

// Format selects how Render presents a report.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Render writes report to w in the requested format.
func Render(w io.Writer, report *seomodel.CrawlReport, format Format) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, report)
	case FormatText, "":
		return renderText(w, report)
	default:
		return fmt.Errorf("report: unsupported format %q", format)
	}
}

func renderJSON(w io.Writer, report *seomodel.CrawlReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// renderText writes the human-facing summary: a counters table, then one
// table per issue and broken/redirected link, via
// github.com/olekukonko/tablewriter — the same library
// nao1215-onionscan's go.mod carries for its own terminal reports.
func renderText(w io.Writer, report *seomodel.CrawlReport) error {
	fmt.Fprintf(w, "Crawl report for %s\n", report.StartURLStr)
	fmt.Fprintf(w, "Crawled at %s\n\n", report.Timestamp.Format("2006-01-02T15:04:05Z07:00"))

	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"Metric", "Count"})
	summary.Append([]string{"Pages crawled", strconv.Itoa(report.Counters.PagesCrawled)})
	summary.Append([]string{"Links found", strconv.Itoa(report.Counters.LinksFound)})
	summary.Append([]string{"Broken links", strconv.Itoa(report.Counters.Broken)})
	summary.Append([]string{"Errors", strconv.Itoa(report.Counters.Errors)})
	summary.Append([]string{"Warnings", strconv.Itoa(report.Counters.Warnings)})
	summary.Append([]string{"Info", strconv.Itoa(report.Counters.Info)})
	summary.Render()

	if len(report.Issues) == 0 {
		fmt.Fprintln(w, "\nNo issues found.")
		return nil
	}

	fmt.Fprintln(w, "\nIssues")
	issues := tablewriter.NewWriter(w)
	issues.SetHeader([]string{"Severity", "Kind", "Source", "Detail"})
	for _, iss := range report.Issues {
		source := iss.SourceURL
		if source == "" {
			source = iss.Target
		}
		issues.Append([]string{string(iss.Severity), string(iss.Kind), source, iss.Detail})
	}
	issues.Render()
	return nil
}
