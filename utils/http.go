package utils

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"

	"rhfetch/internal"
)

// HTTPClientConfig contains configuration for the HTTP client
type HTTPClientConfig struct {
	Timeout  time.Duration
	ProxyURL string
}

// HTTPClient is the transport boundary: it issues requests and hands back
// raw responses. Transport-level failures are wrapped as network errors;
// interpreting status codes is left to the callers and the response
// translation helpers below. It holds no session state.
type HTTPClient struct {
	client    *http.Client
	userAgent string
	mutex     sync.RWMutex
}

const defaultUserAgent = "rhfetch/1.0.0"

// NewHTTPClient creates a new HTTP client with default configuration
func NewHTTPClient() *HTTPClient {
	return NewHTTPClientWithConfig(&HTTPClientConfig{
		Timeout: 30 * time.Second,
	})
}

// NewHTTPClientWithConfig creates a new HTTP client with custom configuration
func NewHTTPClientWithConfig(config *HTTPClientConfig) *HTTPClient {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: false,
		},
	}

	// Configure proxy if provided
	if config.ProxyURL != "" {
		if err := configureProxy(transport, config.ProxyURL); err != nil {
			internal.LogWarn("Failed to configure proxy %s: %v", config.ProxyURL, err)
		}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Allow up to 10 redirects
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &HTTPClient{
		client:    client,
		userAgent: defaultUserAgent,
	}
}

// configureProxy sets up proxy configuration for the transport
func configureProxy(transport *http.Transport, proxyURL string) error {
	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %w", err)
	}

	switch parsedURL.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(parsedURL)
	case "socks5":
		dialer, err := proxy.SOCKS5("tcp", parsedURL.Host, nil, proxy.Direct)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 proxy: %w", err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", parsedURL.Scheme)
	}

	return nil
}

// SetUserAgent sets a custom user agent string
func (c *HTTPClient) SetUserAgent(userAgent string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.userAgent = userAgent
}

// Get performs a GET request with the given headers. The response body is
// left open so callers can stream it; non-streaming callers should go
// through DecodeJSON which drains and closes it.
func (c *HTTPClient) Get(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req, headers)
	req.Header.Set("Accept", "application/json, application/octet-stream, */*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, internal.NewNetworkError("GET "+req.URL.Path, err)
	}
	return resp, nil
}

// PostForm performs a POST request with a URL-encoded form body
func (c *HTTPClient) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req, headers)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, internal.NewNetworkError("POST "+req.URL.Path, err)
	}
	return resp, nil
}

// setHeaders applies the user agent and any caller-supplied headers
func (c *HTTPClient) setHeaders(req *http.Request, headers map[string]string) {
	c.mutex.RLock()
	req.Header.Set("User-Agent", c.userAgent)
	c.mutex.RUnlock()

	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

// BearerHeaders returns the authorization headers for a session token
func BearerHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + token,
	}
}

// Response translation helpers

// ReadResponse drains and closes the response body, returning the status
// code together with the raw bytes
func ReadResponse(resp *http.Response) (int, []byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, internal.NewNetworkError("reading response body", err)
	}
	return resp.StatusCode, body, nil
}

// DecodeJSON reads the full response and unmarshals a successful body into
// target. A non-2xx status is returned as an InvalidResponse error carrying
// the server's message; callers that need finer categorization (auth
// rejections, throttling) read the status and body themselves.
func DecodeJSON(resp *http.Response, target interface{}) error {
	status, body, err := ReadResponse(resp)
	if err != nil {
		return err
	}

	if status < 200 || status >= 300 {
		return internal.NewInvalidResponseError(status, ServerMessage(body))
	}

	if err := json.Unmarshal(body, target); err != nil {
		return internal.NewInvalidResponseError(status, fmt.Sprintf("malformed JSON response: %v", err))
	}
	return nil
}

// ServerMessage extracts the human-readable message from an error payload.
// The brokerage reports failures as {"detail": "..."}; anything else is
// returned as trimmed raw text.
func ServerMessage(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(body))
}
