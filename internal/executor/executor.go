// Package executor issues single HTTP requests against the target API and
// holds the session state shared between them
package executor

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/su1ph3r/vigil/pkg/types"
)

// ErrTransport is wrapped by every TransportError
var ErrTransport = errors.New("transport error")

// TransportError reports that no HTTP response was obtained: DNS failure,
// refused connection, timeout, TLS failure or a truncated body.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Timeout reports whether the failure was a timeout
func (e *TransportError) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// Request is a single request relative to the executor's base URL
type Request struct {
	Method  string
	Path    string
	Body    []byte // nil means no body
	Headers map[string]string

	// OmitContentType suppresses the default JSON Content-Type for bodies
	OmitContentType bool
}

// Executor issues one HTTP request and returns its response. HTTP error
// statuses are results, not errors; only transport failures return an error.
type Executor interface {
	Execute(ctx context.Context, req Request) (*types.HTTPResponse, error)
}

// HTTPExecutor is the net/http backed Executor
type HTTPExecutor struct {
	baseURL  string
	settings types.HTTPSettings
	client   *http.Client
	logger   *RequestLogger
}

// New creates an executor bound to baseURL
func New(baseURL string, settings types.HTTPSettings) (*HTTPExecutor, error) {
	if err := types.ValidateURL(baseURL); err != nil {
		return nil, fmt.Errorf("%w: target.base_url: %v", types.ErrConfiguration, err)
	}

	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !settings.VerifySSL,
		},
	}

	// Configure proxy if specified
	if settings.ProxyURL != "" {
		proxyURL, err := url.Parse(settings.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("%w: http.proxy_url: %v", types.ErrConfiguration, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   settings.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !settings.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) >= settings.MaxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &HTTPExecutor{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		settings: settings,
		client:   client,
	}, nil
}

// SetLogger attaches a request logger; nil disables logging
func (e *HTTPExecutor) SetLogger(l *RequestLogger) {
	e.logger = l
}

// BaseURL returns the base URL with any trailing slash removed
func (e *HTTPExecutor) BaseURL() string {
	return e.baseURL
}

// ResolveURL joins path with the base URL
func (e *HTTPExecutor) ResolveURL(path string) string {
	return JoinURL(e.baseURL, path)
}

// Client returns the underlying HTTP client
func (e *HTTPExecutor) Client() *http.Client { return e.client }

// Execute sends req once. There are no retries.
func (e *HTTPExecutor) Execute(ctx context.Context, req Request) (*types.HTTPResponse, error) {
	target := e.ResolveURL(req.Path)
	method := strings.ToUpper(req.Method)

	httpReq, err := e.buildRequest(ctx, method, target, req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		terr := &TransportError{Method: method, URL: target, Err: err}
		e.log(httpReq, req.Body, nil, time.Since(start), terr)
		return nil, terr
	}

	httpResp, err := readResponse(resp, start)
	if err != nil {
		terr := &TransportError{Method: method, URL: target, Err: err}
		e.log(httpReq, req.Body, nil, time.Since(start), terr)
		return nil, terr
	}

	e.log(httpReq, req.Body, httpResp, httpResp.ResponseTime, nil)
	return httpResp, nil
}

// buildRequest builds the HTTP request. Explicit headers win over defaults.
func (e *HTTPExecutor) buildRequest(ctx context.Context, method, target string, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	// Set default headers from config
	for key, value := range e.settings.Headers {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, value)
		}
	}

	if httpReq.Header.Get("User-Agent") == "" && e.settings.UserAgent != "" {
		httpReq.Header.Set("User-Agent", e.settings.UserAgent)
	}

	// Set Content-Type for body
	if req.Body != nil && !req.OmitContentType && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}

func (e *HTTPExecutor) log(req *http.Request, body []byte, resp *types.HTTPResponse, d time.Duration, err error) {
	if e.logger == nil {
		return
	}
	e.logger.Log(CaptureRequest(req, body), resp, d, err)
}

// readResponse drains and closes the response body
func readResponse(resp *http.Response, start time.Time) (*types.HTTPResponse, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		headers[key] = strings.Join(values, ", ")
	}

	return &types.HTTPResponse{
		StatusCode:    resp.StatusCode,
		Status:        resp.Status,
		Headers:       headers,
		Body:          string(data),
		ContentLength: int64(len(data)),
		ResponseTime:  time.Since(start),
	}, nil
}

// CaptureRequest snapshots an outgoing request for logs and reports
func CaptureRequest(req *http.Request, body []byte) *types.HTTPRequest {
	headers := make(map[string]string, len(req.Header))
	for key, values := range req.Header {
		headers[key] = strings.Join(values, ", ")
	}
	return &types.HTTPRequest{
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: headers,
		Body:    string(body),
	}
}

// JoinURL joins a base URL and an endpoint path. Absolute http(s) URLs are
// returned unchanged.
func JoinURL(baseURL, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(baseURL, "/") + path
}
