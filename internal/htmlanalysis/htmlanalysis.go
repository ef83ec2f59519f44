// Package htmlanalysis implements the single-pass SEO analyzer of
// spec.md §4.5: one DOM traversal collecting title, meta description,
// heading counts, image alt-text coverage, a content-substance heuristic,
// Open Graph tags, and every outbound link reference in one walk.
//
// Grounded on Bahjat-page-insight-tool/internal/pageinsight/parser.go's
// Parse function: a golang.org/x/net/html.Tokenizer driven by a single
// `for { tt := z.Next(); switch tt { ... } }` loop, generalized from
// title/headings/links/login-form to the full SEO finding set spec.md
// names. The analyzer is a pure function — no I/O, no shared state —
// which is the boundary spec.md §9 calls out as making the engine
// testable without a network.
package htmlanalysis

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// ContentIndicatorThreshold is the constant spec.md §9 fixes, not tunable.
const ContentIndicatorThreshold = 5

// ExtractedLink is one outbound reference found on the page, tagged with
// the tag it came from for diagnostics; resolution against the page's
// final URL happens in the caller (the crawl engine), which owns the
// URL normalizer.
type ExtractedLink struct {
	Href   string
	Source string // "a", "iframe", "video", "source", "audio", "embed", "object"
}

// Result is everything the single pass collects.
type Result struct {
	Title              string
	MetaDescription    string
	Lang               string
	H1Count            int
	ImagesMissingAlt   int
	TextIndicatorCount int
	OpenGraph          map[string]string
	Links              []ExtractedLink
}

// ThinContent reports whether the page falls under the fixed content
// indicator threshold.
func (r Result) ThinContent() bool {
	return r.TextIndicatorCount < ContentIndicatorThreshold
}

var contentIndicatorTags = map[string]struct{}{
	"p": {}, "li": {},
	"h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
}

// linkAttrByTag names, for each tag spec.md §4.5 lists, which attribute
// carries the outbound reference.
var linkAttrByTag = map[string]string{
	"a":      "href",
	"iframe": "src",
	"video":  "src",
	"audio":  "src",
	"source": "src",
	"embed":  "src",
	"object": "data",
}

// Analyze performs the single-pass tokenizer walk over an HTML document.
// It never panics on malformed input: a tokenizer error simply ends the
// walk early and Analyze returns whatever was collected so far.
func Analyze(body []byte) Result {
	result := Result{OpenGraph: make(map[string]string)}

	z := html.NewTokenizer(bytes.NewReader(body))
	var inTitle bool
	var titleCaptured bool
	var inMediaContainer int // nesting depth inside <video>/<audio>
	var contentTag string
	var contentHasText bool

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return result

		case html.StartTagToken, html.SelfClosingTagToken:
			tagBytes, hasAttr := z.TagName()
			tag := strings.ToLower(string(tagBytes))
			var attrs map[string]string
			if hasAttr {
				attrs = collectAttrs(z)
			}

			switch tag {
			case "html":
				if lang, ok := attrs["lang"]; ok && lang != "" {
					result.Lang = lang
				}
			case "title":
				if !titleCaptured {
					inTitle = true
				}
			case "h1":
				result.H1Count++
			case "img":
				if strings.TrimSpace(attrs["alt"]) == "" {
					result.ImagesMissingAlt++
				}
			case "meta":
				collectMeta(attrs, &result)
			case "video", "audio":
				inMediaContainer++
			}

			if attrName, ok := linkAttrByTag[tag]; ok && (tag != "source" || inMediaContainer > 0) {
				if href := strings.TrimSpace(attrs[attrName]); href != "" {
					result.Links = append(result.Links, ExtractedLink{Href: href, Source: tag})
				}
			}

			if _, ok := contentIndicatorTags[tag]; ok && tt == html.StartTagToken {
				contentTag = tag
				contentHasText = false
			}

		case html.TextToken:
			text := strings.TrimSpace(string(z.Text()))
			if inTitle && text != "" {
				result.Title = text
				titleCaptured = true
				inTitle = false
			}
			if contentTag != "" && text != "" {
				contentHasText = true
			}

		case html.EndTagToken:
			tagBytes, _ := z.TagName()
			tag := strings.ToLower(string(tagBytes))
			switch tag {
			case "title":
				inTitle = false
			case "video", "audio":
				if inMediaContainer > 0 {
					inMediaContainer--
				}
			}
			if tag == contentTag {
				if contentHasText {
					result.TextIndicatorCount++
				}
				contentTag = ""
				contentHasText = false
			}
		}
	}
}

func collectMeta(attrs map[string]string, result *Result) {
	name := strings.ToLower(attrs["name"])
	property := strings.ToLower(attrs["property"])
	content := attrs["content"]

	if name == "description" && result.MetaDescription == "" {
		result.MetaDescription = content
		return
	}
	if strings.HasPrefix(property, "og:") {
		if _, exists := result.OpenGraph[property]; !exists {
			result.OpenGraph[property] = content
		}
	}
}

// collectAttrs drains the current tag's attribute stream once — the
// tokenizer does not support re-reading it, so every attribute a caller
// might need is captured in a single TagAttr loop.
func collectAttrs(z *html.Tokenizer) map[string]string {
	attrs := make(map[string]string, 4)
	for {
		key, val, more := z.TagAttr()
		if len(key) > 0 {
			attrs[strings.ToLower(string(key))] = string(val)
		}
		if !more {
			break
		}
	}
	return attrs
}
