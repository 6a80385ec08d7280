package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"surgly/internal/domain"
	"surgly/pkg/logger"
	"surgly/pkg/metrics"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const (
	defaultMaxPageBytes = 2 << 20
	maxRedirects        = 10
)

// implements domain.PageFetcher
type PageFetcher struct {
	client       *http.Client
	userAgent    string
	maxBytes     int64
	allowedAddrs map[string]struct{}
	logger       *logger.Logger
	metrics      *metrics.Metrics
	rateLimiter  *rate.Limiter
}

type PageFetcherOption func(*PageFetcher)

// AllowAddresses lets the fetcher dial the given non-public host:port pairs.
func AllowAddresses(addrs ...string) PageFetcherOption {
	return func(f *PageFetcher) {
		for _, addr := range addrs {
			f.allowedAddrs[addr] = struct{}{}
		}
	}
}

// creates a new landing page fetcher
func NewPageFetcher(timeout time.Duration, maxBytes int64, userAgent string, limiter *rate.Limiter, logger *logger.Logger, metrics *metrics.Metrics, opts ...PageFetcherOption) *PageFetcher {
	if maxBytes <= 0 {
		maxBytes = defaultMaxPageBytes
	}
	f := &PageFetcher{
		userAgent:    userAgent,
		maxBytes:     maxBytes,
		allowedAddrs: make(map[string]struct{}),
		logger:       logger,
		metrics:      metrics,
		rateLimiter:  limiter,
	}
	for _, opt := range opts {
		opt(f)
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   f.controlDial,
	}
	f.client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: f.checkRedirect,
	}
	return f
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", domain.ErrInvalidURL)
	}
	return u, nil
}

// isPublic reports whether addr is routable on the public internet.
func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified()
}

func (f *PageFetcher) permitted(addr netip.Addr, hostport string) bool {
	if isPublic(addr) {
		return true
	}
	_, ok := f.allowedAddrs[hostport]
	return ok
}

// checkHost rejects URLs whose host is a literal non-public IP. Hostnames
// are checked after resolution by controlDial.
func (f *PageFetcher) checkHost(u *url.URL) error {
	addr, err := netip.ParseAddr(u.Hostname())
	if err != nil {
		return nil
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	if !f.permitted(addr, net.JoinHostPort(addr.String(), port)) {
		return fmt.Errorf("%w: %s is not a public address", domain.ErrInvalidURL, u.Hostname())
	}
	return nil
}

// controlDial runs on every resolved address right before connecting, so
// redirects and DNS answers pointing inward are refused too.
func (f *PageFetcher) controlDial(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if !f.permitted(addr, address) {
		return fmt.Errorf("%w: %s is not a public address", domain.ErrInvalidURL, address)
	}
	return nil
}

func (f *PageFetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if _, err := ValidateURL(req.URL.String()); err != nil {
		return err
	}
	return f.checkHost(req.URL)
}

// downloads a landing page and returns its HTML decoded to UTF-8
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return "", err
	}
	if err := f.checkHost(u); err != nil {
		f.metrics.RecordExternalAPIFailure("landing_page", "blocked_address")
		return "", err
	}

	start := time.Now()

	if err := f.rateLimiter.Wait(ctx); err != nil {
		f.metrics.RecordExternalAPIFailure("landing_page", "rate_limit")
		return "", fmt.Errorf("%w: rate limit exceeded: %v", domain.ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		f.metrics.RecordExternalAPIFailure("landing_page", "request_creation")
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if errors.Is(err, domain.ErrInvalidURL) {
		f.metrics.RecordExternalAPIFailure("landing_page", "blocked_address")
		return "", fmt.Errorf("refused to fetch %s: %w", u.Host, err)
	}
	if err != nil {
		f.metrics.RecordExternalAPIFailure("landing_page", "network_error")
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.metrics.RecordExternalAPICall("landing_page", fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return "", fmt.Errorf("%w: status %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		reader = resp.Body
	}

	body, err := io.ReadAll(io.LimitReader(reader, f.maxBytes))
	if err != nil {
		f.metrics.RecordExternalAPIFailure("landing_page", "read_body")
		return "", fmt.Errorf("%w: failed to read body: %v", domain.ErrFetchFailed, err)
	}

	f.metrics.RecordExternalAPICall("landing_page", "success", duration)

	f.logger.WithContext(ctx).WithFields(map[string]any{
		"url":      u.String(),
		"duration": duration,
		"bytes":    len(body),
	}).Info("Fetched landing page")

	return string(body), nil
}
