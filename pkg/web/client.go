package web

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"

	apperrors "mdc/internal/errors"
)

// DefaultUserAgent is a current Chrome-class UA string.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client is the HTTP gateway shared by all scrapers. It retries
// transient failures with exponential back-off and keeps a cookie jar
// per instance.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	retries      int
	browser      *Browser
	autoFallback bool
}

// ClientOptions configures a Client.
type ClientOptions struct {
	Timeout       time.Duration
	Retries       int
	UserAgent     string
	ProxyURL      string
	SkipTLSVerify bool
	// Browser, when set, serves as the hardened backend for pages an
	// ordinary request cannot reach.
	Browser *Browser
	// AutoFallback retries through the hardened backend when the plain
	// request fails with an anti-bot signature.
	AutoFallback bool
}

// RequestOptions carries per-request header overrides.
type RequestOptions struct {
	Cookie  string
	Referer string
	Accept  string
}

// NewClient creates a gateway client. Defaults: 10 s timeout, 3
// retries, TLS verification on.
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = 3
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.SkipTLSVerify,
		},
	}
	if opts.ProxyURL != "" {
		if err := setupProxy(transport, opts.ProxyURL); err != nil {
			return nil, err
		}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			Jar:       jar,
		},
		userAgent:    ua,
		retries:      retries,
		browser:      opts.Browser,
		autoFallback: opts.AutoFallback,
	}, nil
}

// Get fetches a URL and returns the response body as text. When the
// plain request trips an anti-bot wall and auto-fallback is enabled,
// the hardened backend takes over.
func (c *Client) Get(ctx context.Context, rawURL string, opts *RequestOptions) (string, error) {
	body, err := c.do(ctx, http.MethodGet, rawURL, "", nil, opts)
	if err != nil && c.autoFallback && c.browser != nil && apperrors.NeedsHardenedFetch(err) {
		logrus.WithField("url", rawURL).Debug("falling back to hardened backend")
		return c.browser.FetchHTML(ctx, rawURL)
	}
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Post sends a form POST and returns the response body as text.
func (c *Client) Post(ctx context.Context, rawURL string, form url.Values, opts *RequestOptions) (string, error) {
	body, err := c.do(ctx, http.MethodPost, rawURL,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), opts)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Bytes fetches a URL and returns the raw response body.
func (c *Client) Bytes(ctx context.Context, rawURL string, opts *RequestOptions) ([]byte, error) {
	return c.do(ctx, http.MethodGet, rawURL, "", nil, opts)
}

func (c *Client) do(ctx context.Context, method, rawURL, contentType string, body io.Reader, opts *RequestOptions) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return nil, apperrors.NewCancelled()
			case <-time.After(backoff):
			}
		}

		// The body reader is consumed per attempt; form POSTs rebuild it.
		reqBody := body
		if sr, ok := body.(*strings.Reader); ok {
			if _, err := sr.Seek(0, io.SeekStart); err == nil {
				reqBody = sr
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindNetwork, "gateway", "building request", err)
		}
		c.setHeaders(req, contentType, opts)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, apperrors.NewCancelled()
			}
			lastErr = apperrors.NewNetwork("gateway", err)
			continue
		}

		if retryableStatus(resp.StatusCode) {
			resp.Body.Close()
			// Exhausted retries on a transient status count as a
			// network failure, not a definitive status.
			lastErr = apperrors.New(apperrors.KindNetwork, "gateway",
				fmt.Sprintf("retryable status %d exhausted retries", resp.StatusCode))
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, apperrors.NewHTTPStatus("gateway", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = apperrors.NewNetwork("gateway", err)
			continue
		}
		return data, nil
	}
	return nil, lastErr
}

func (c *Client) setHeaders(req *http.Request, contentType string, opts *RequestOptions) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5,ja;q=0.4")
	req.Header.Set("Connection", "keep-alive")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if opts == nil {
		return
	}
	if opts.Cookie != "" {
		req.Header.Set("Cookie", opts.Cookie)
	}
	if opts.Referer != "" {
		req.Header.Set("Referer", opts.Referer)
	}
	if opts.Accept != "" {
		req.Header.Set("Accept", opts.Accept)
	}
}

// SetCookie seeds the jar for a URL.
func (c *Client) SetCookie(u *url.URL, cookie *http.Cookie) {
	if c.httpClient.Jar != nil {
		c.httpClient.Jar.SetCookies(u, []*http.Cookie{cookie})
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func setupProxy(transport *http.Transport, proxyURL string) error {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks5":
		dialer, err := proxy.SOCKS5("tcp", u.Host, nil, proxy.Direct)
		if err != nil {
			return fmt.Errorf("creating SOCKS5 dialer: %w", err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
	}
	return nil
}
