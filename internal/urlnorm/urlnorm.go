// Package urlnorm canonicalizes URLs and classifies them as same-site or
// external relative to a crawl's start URL.
//
// Grounded on Bahjat-page-insight-tool/internal/pageinsight/parser.go's
// classifyLink (resolve against a base, then inspect scheme/host) and
// generalized to the full normalization rule set spec.md §4.1 requires:
// scheme/host lowercasing, default-port elision, trailing-dot removal,
// dot-segment collapse, and fragment handling.
package urlnorm

import (
	"fmt"
	"net/url"
	"strings"
)

// SiteOrigin is (host-lowercased, effective port), scheme-insensitive.
type SiteOrigin struct {
	Host string
	Port string
}

func defaultPort(scheme string) string {
	switch scheme {
	case "https":
		return "443"
	case "http":
		return "80"
	default:
		return ""
	}
}

// Normalize resolves ref against base and canonicalizes the result per
// spec.md §4.1. It rejects non-http(s) schemes and malformed references;
// callers treat a rejection as a Skipped link, not a hard error, except
// where the caller itself requires an absolute http(s) URL (e.g. the
// start URL).
func Normalize(ref string, base *url.URL, keepFragments bool) (*url.URL, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("urlnorm: empty reference")
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("urlnorm: parse %q: %w", ref, err)
	}

	var resolved *url.URL
	if base != nil {
		resolved = base.ResolveReference(parsed)
	} else {
		resolved = parsed
	}

	scheme := strings.ToLower(resolved.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("urlnorm: unsupported scheme %q", resolved.Scheme)
	}
	if resolved.Host == "" {
		return nil, fmt.Errorf("urlnorm: missing host in %q", ref)
	}

	out := *resolved
	out.Scheme = scheme
	out.Host = canonicalHost(resolved)

	out.Path = collapseDotSegments(out.Path)
	if out.Path == "" {
		out.Path = "/"
	}

	if !keepFragments {
		out.Fragment = ""
		out.RawFragment = ""
	}

	return &out, nil
}

func canonicalHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	host = strings.TrimSuffix(host, ".")
	port := u.Port()
	scheme := strings.ToLower(u.Scheme)
	if port != "" && port != defaultPort(scheme) {
		return host + ":" + port
	}
	return host
}

// collapseDotSegments removes "." and ".." segments per RFC 3986 §5.2.4,
// without percent-decoding the rest of the path.
func collapseDotSegments(path string) string {
	if path == "" {
		return path
	}
	absolute := strings.HasPrefix(path, "/")
	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != "" {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	result := strings.Join(out, "/")
	if absolute && !strings.HasPrefix(result, "/") {
		result = "/" + result
	}
	return result
}

// Origin computes the SiteOrigin of an absolute URL. Port is always
// present (scheme-default if not explicit) so ports are compared even
// when both sides rely on the scheme default.
func Origin(u *url.URL) SiteOrigin {
	scheme := strings.ToLower(u.Scheme)
	port := u.Port()
	if port == "" {
		port = defaultPort(scheme)
	}
	return SiteOrigin{Host: strings.ToLower(u.Hostname()), Port: port}
}

// SameSite reports whether two SiteOrigins refer to the same site. Scheme
// differences never split an origin because SiteOrigin never records scheme.
func SameSite(a, b SiteOrigin) bool {
	return a.Host == b.Host && a.Port == b.Port
}

// EquivalenceKey returns the structural key used as the visited-set /
// link-equivalence identity: (scheme, host, effective-port, path, query)
// plus fragment only when keepFragments is set.
func EquivalenceKey(u *url.URL, keepFragments bool) string {
	origin := Origin(u)
	key := strings.ToLower(u.Scheme) + "://" + origin.Host + ":" + origin.Port + u.EscapedPath()
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	if keepFragments && u.Fragment != "" {
		key += "#" + u.Fragment
	}
	return key
}
