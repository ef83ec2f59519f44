// Package fetch implements the Fetcher contract spec.md §4.2 describes:
// one HTTP request in, a Response or TransportError out, redirects
// followed up to a cap with the hop count surfaced separately.
//
// Grounded on haesookimDev-newscrawler/internal/fetcher/fetcher.go's
// HTTPFetcher (transport construction, gzip/deflate/brotli body
// decoding, body-size cap), generalized to accept GET or HEAD and to
// count redirect hops via a CheckRedirect hook rather than following
// blindly, the way Bahjat-page-insight-tool/internal/pageinsight/scanner.go
// installs its own CheckRedirect to intercept the chain.
package fetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

// Method is the HTTP method the crawler ever issues.
type Method string

const (
	MethodGET  Method = "GET"
	MethodHEAD Method = "HEAD"
)

// Response is what the core sees after following redirects.
type Response struct {
	FinalURL     *url.URL
	StatusCode   int
	RedirectHops int
	ContentType  string
	Body         []byte
}

// TransportErrorKind enumerates the ways a request can fail below HTTP.
type TransportErrorKind string

const (
	Timeout            TransportErrorKind = "timeout"
	DnsFailure         TransportErrorKind = "dns_failure"
	ConnectionRefused  TransportErrorKind = "connection_refused"
	TlsError           TransportErrorKind = "tls_error"
	Other              TransportErrorKind = "other"
)

// TransportError is returned instead of Response when the request never
// produced an HTTP response. It never propagates out of the core as a
// panic; callers turn it into a LinkResult or PageResult status.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func classifyTransportError(err error) *TransportError {
	if err == nil {
		return nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &TransportError{Kind: DnsFailure, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return &TransportError{Kind: Timeout, Err: err}
		}
		if strings.Contains(opErr.Err.Error(), "connection refused") {
			return &TransportError{Kind: ConnectionRefused, Err: err}
		}
	}

	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		return &TransportError{Kind: TlsError, Err: err}
	}
	if strings.Contains(err.Error(), "tls:") || strings.Contains(err.Error(), "x509:") {
		return &TransportError{Kind: TlsError, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Kind: Timeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Kind: Timeout, Err: err}
	}

	return &TransportError{Kind: Other, Err: err}
}

// Fetcher performs one HTTP request and returns a Response or a
// *TransportError.
type Fetcher interface {
	Fetch(ctx context.Context, target *url.URL, method Method, timeout time.Duration) (*Response, error)
}

// Options controls HTTP fetching behaviour.
type Options struct {
	UserAgent      string
	Headers        map[string]string
	MaxBodyBytes   int64
	MaxRedirects   int
	IdleConnExpiry time.Duration
}

type hopCounterKey struct{}

// HTTPFetcher implements Fetcher via the Go http.Client.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	extraHeaders map[string]string
	maxBodyBytes int64
	maxRedirects int
}

// NewHTTPFetcher constructs an HTTP fetcher using the provided options.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 * 1024 * 1024
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 10
	}
	if opts.IdleConnExpiry <= 0 {
		opts.IdleConnExpiry = 90 * time.Second
	}

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       opts.IdleConnExpiry,
		ExpectContinueTimeout: 1 * time.Second,
	}

	f := &HTTPFetcher{
		userAgent:    opts.UserAgent,
		extraHeaders: opts.Headers,
		maxBodyBytes: opts.MaxBodyBytes,
		maxRedirects: opts.MaxRedirects,
	}

	f.client = &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if counter, ok := req.Context().Value(hopCounterKey{}).(*int); ok {
				*counter = len(via)
			}
			if len(via) >= f.maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return f
}

// Fetch downloads a single URL, following redirects up to the configured
// cap and surfacing the hop count separately from the final status.
func (f *HTTPFetcher) Fetch(ctx context.Context, target *url.URL, method Method, timeout time.Duration) (*Response, error) {
	if target == nil {
		return nil, &TransportError{Kind: Other, Err: errors.New("fetch: nil target")}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpMethod := http.MethodGet
	if method == MethodHEAD {
		httpMethod = http.MethodHead
	}

	hops := new(int)
	ctx = context.WithValue(ctx, hopCounterKey{}, hops)

	httpReq, err := http.NewRequestWithContext(ctx, httpMethod, target.String(), nil)
	if err != nil {
		return nil, &TransportError{Kind: Other, Err: err}
	}

	if f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, v := range f.extraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	var body []byte
	if method != MethodHEAD {
		body, err = f.readBody(resp)
		if err != nil {
			return nil, &TransportError{Kind: Other, Err: err}
		}
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	return &Response{
		FinalURL:     finalURL,
		StatusCode:   resp.StatusCode,
		RedirectHops: *hops,
		ContentType:  resp.Header.Get("Content-Type"),
		Body:         body,
	}, nil
}

func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, nil
	}

	reader := io.Reader(resp.Body)
	var closers []io.Closer

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	limited := io.LimitReader(reader, f.maxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		body = body[:f.maxBodyBytes]
	}
	return body, nil
}

// Client exposes the underlying HTTP client for collaborators that need
// to issue requests outside the Fetcher contract (e.g. the robots cache
// reuses it so robots fetches share connection pooling).
func (f *HTTPFetcher) Client() *http.Client {
	return f.client
}
