package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/webaudit/webaudit/internal/model"
)

// Default client settings. These mirror the application-level defaults
// in internal/config so a zero-option client behaves sensibly in tests.
const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodySize  = 5 * 1024 * 1024 // 5MB
	defaultMaxRedirects = 10
	defaultUserAgent    = "webaudit/1.0 (+https://github.com/webaudit/webaudit)"
)

// Client is the shared HTTP client for all network operations.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxBodySize  int64
	maxRedirects int
	headers      map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithMaxBodySize limits how many bytes of a response body are read.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithMaxRedirects sets the redirect limit per request.
func WithMaxRedirects(limit int) Option {
	return func(c *Client) {
		c.maxRedirects = limit
	}
}

// WithHeaders sets extra headers sent with every request.
// Used for site-specific configuration such as cookies or auth headers.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithTransport replaces the underlying transport.
// Mainly useful in tests.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

// New creates a Client with the given options applied over the defaults.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		userAgent:    defaultUserAgent,
		maxBodySize:  defaultMaxBodySize,
		maxRedirects: defaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) >= c.maxRedirects {
			return ErrTooManyRedirects
		}
		return nil
	}
	return c
}

// Response is the outcome of a successful Get.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Body is the response body, truncated to the configured maximum.
	Body []byte

	// FinalURL is the URL after following redirects.
	FinalURL string

	// Redirects is the number of redirects followed.
	Redirects int

	// ResponseTime is the total request duration including body read.
	ResponseTime time.Duration

	// TLS holds the connection state for HTTPS responses, nil otherwise.
	TLS *tls.ConnectionState
}

// ContentType returns the Content-Type header without parameters.
func (r *Response) ContentType() string {
	contentType := r.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType)
}

// ValidateURL checks that rawURL is an absolute http or https URL.
// This runs before any network I/O so malformed input fails fast.
func ValidateURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	return parsed, nil
}

// Get fetches a URL and returns the response with a size-limited body.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	if _, err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	redirects := 0
	prevCheck := c.httpClient.CheckRedirect
	// Count redirects per request without racing other requests: wrap a
	// per-call client around the shared transport and settings.
	client := &http.Client{
		Transport: c.httpClient.Transport,
		Timeout:   c.httpClient.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			redirects = len(via)
			if prevCheck != nil {
				return prevCheck(req, via)
			}
			return nil
		},
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		StatusCode:   resp.StatusCode,
		Header:       resp.Header,
		Body:         body,
		FinalURL:     finalURL,
		Redirects:    redirects,
		ResponseTime: time.Since(start),
		TLS:          resp.TLS,
	}, nil
}

// setHeaders applies the User-Agent and any configured extra headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
}

// CheckURL probes a single URL and classifies the outcome.
// Network failures are folded into the returned LinkCheck rather than
// returned as errors, because a failing link is a finding, not a fault.
func (c *Client) CheckURL(ctx context.Context, rawURL string) model.LinkCheck {
	check := model.LinkCheck{URL: rawURL, FinalURL: rawURL}

	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		check.Status = classifyError(err)
		check.Error = err.Error()
		return check
	}

	check.StatusCode = resp.StatusCode
	check.FinalURL = resp.FinalURL
	check.Redirected = resp.Redirects > 0
	check.ResponseTime = resp.ResponseTime.Seconds()

	if resp.StatusCode >= 400 {
		check.Status = model.LinkStatusBroken
	} else {
		check.Status = model.LinkStatusWorking
	}
	return check
}

// classifyError maps a transport error onto a link status.
func classifyError(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.LinkStatusTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.LinkStatusTimeout
	}
	if errors.Is(err, ErrTooManyRedirects) {
		return model.LinkStatusTooManyRedirect
	}

	var certErr *tls.CertificateVerificationError
	var hostErr x509.HostnameError
	var unknownAuthErr x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &unknownAuthErr) {
		return model.LinkStatusTLSError
	}
	if strings.Contains(err.Error(), "tls:") || strings.Contains(err.Error(), "certificate") {
		return model.LinkStatusTLSError
	}

	return model.LinkStatusConnectionError
}
