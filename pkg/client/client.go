// Package client implements the HTTP client that checks use to talk to the
// service under test. Every call is a single request with its own timeout;
// nothing is retried.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// Error message constants
const (
	errFailedToMarshalBody    = "failed to marshal request body: %w"
	errFailedToBuildRequest   = "failed to build request: %w"
	errFailedToReadResponse   = "failed to read response body: %w"
	errFailedToDecodeResponse = "failed to decode response JSON: %w"
)

// HTTP constants
const (
	contentTypeJSON = "application/json"
	defaultTimeout  = 30 * time.Second
	maxRedirects    = 10
	maxBodyBytes    = 10 << 20
)

// Options configures a Client.
type Options struct {
	// Timeout applies to requests that do not carry their own.
	Timeout time.Duration
	// UserAgent is sent with every request when set.
	UserAgent string
	// Transport overrides the default transport (tests).
	Transport http.RoundTripper
}

// Client sends JSON requests to the service under test.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

// Request is one HTTP call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body is encoded as JSON when non-nil.
	Body    interface{}
	Timeout time.Duration
}

// Response is the outcome of one HTTP call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration

	once    sync.Once
	decoded interface{}
	err     error
}

// TimeoutError reports a request that did not complete within its timeout.
type TimeoutError struct {
	Method  string
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s timed out after %s", e.Method, e.URL, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// New creates a client. A zero timeout means 30 seconds.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		timeout:   timeout,
		userAgent: opts.UserAgent,
	}
}

// Timeout returns the default per-request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Do sends a request and reads the whole response body. Transport failures
// and timeouts are returned as errors; any HTTP status is a valid response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		data, err := sonic.ConfigStd.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf(errFailedToMarshalBody, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf(errFailedToBuildRequest, err)
	}
	httpReq.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		httpReq.Header.Set("Content-Type", contentTypeJSON)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	slog.Debug("Sending request", "method", req.Method, "url", req.URL, "timeout", timeout)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classify(ctx, req, timeout, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.classify(ctx, req, timeout, fmt.Errorf(errFailedToReadResponse, err))
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
		Duration:   time.Since(start),
	}
	slog.Debug("Received response", "method", req.Method, "url", req.URL, "status", resp.StatusCode, "duration", resp.Duration)
	return resp, nil
}

// classify turns deadline errors into *TimeoutError. Cancellation of the
// parent context is passed through untouched.
func (c *Client) classify(ctx context.Context, req *Request, timeout time.Duration, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Method: req.Method, URL: req.URL, Timeout: timeout, Err: err}
	}
	return fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// JSON decodes the body once and returns the decoded value. Numbers decode
// as float64.
func (r *Response) JSON() (interface{}, error) {
	r.once.Do(func() {
		if len(bytes.TrimSpace(r.Body)) == 0 {
			r.err = fmt.Errorf(errFailedToDecodeResponse, errors.New("empty body"))
			return
		}
		if err := sonic.ConfigStd.Unmarshal(r.Body, &r.decoded); err != nil {
			r.err = fmt.Errorf(errFailedToDecodeResponse, err)
		}
	})
	return r.decoded, r.err
}

// Text returns the body as a string truncated to at most n bytes. The cut
// backs off to a rune boundary.
func (r *Response) Text(n int) string {
	if n <= 0 || len(r.Body) <= n {
		return string(r.Body)
	}
	for n > 0 && !utf8.RuneStart(r.Body[n]) {
		n--
	}
	return string(r.Body[:n]) + "... [truncated]"
}
