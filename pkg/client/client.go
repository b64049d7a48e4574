// Package client talks to a running engine's admin API.
//
// A process-wide default target mirrors the way tests usually reach a
// single mock server: ConfigureFor points it at host:port, and the
// package-level functions use it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/mockscope/pkg/engine"
	"github.com/getmockd/mockscope/pkg/httputil"
	"github.com/getmockd/mockscope/pkg/requestlog"
	"github.com/getmockd/mockscope/pkg/stub"
)

// DefaultTimeout bounds each admin call.
const DefaultTimeout = 30 * time.Second

// ErrNotFound matches API errors with status 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx answer from the admin API. StatusCode is 0 when the
// engine could not be reached.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("admin API %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client calls one engine.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// New returns a client for the engine at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL is the engine URL the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Health checks that the engine answers.
func (c *Client) Health(ctx context.Context) (*engine.HealthResponse, error) {
	var out engine.HealthResponse
	if err := c.call(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StubFor registers s and returns the stored stub with its ID.
func (c *Client) StubFor(ctx context.Context, s *stub.Stub) (*stub.Stub, error) {
	if s == nil {
		return nil, engine.ErrNilStub
	}
	var out stub.Stub
	if err := c.call(ctx, http.MethodPost, "/mappings", s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stubs lists the engine's stubs in matching order.
func (c *Client) Stubs(ctx context.Context) ([]*stub.Stub, error) {
	var out engine.StubsResponse
	if err := c.call(ctx, http.MethodGet, "/mappings", nil, &out); err != nil {
		return nil, err
	}
	return out.Mappings, nil
}

// RemoveStub deletes one stub. Unknown IDs yield an error matching ErrNotFound.
func (c *Client) RemoveStub(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/mappings/"+url.PathEscape(id), nil, nil)
}

// ResetStubs deletes every stub.
func (c *Client) ResetStubs(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/mappings", nil, nil)
}

// Requests lists journaled requests, newest first.
func (c *Client) Requests(ctx context.Context, filter *requestlog.Filter) ([]*requestlog.Entry, error) {
	path := "/requests"
	if q := filterQuery(filter); q != "" {
		path += "?" + q
	}
	var out engine.RequestsResponse
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Requests, nil
}

func filterQuery(f *requestlog.Filter) string {
	if f == nil {
		return ""
	}
	q := url.Values{}
	if f.Method != "" {
		q.Set("method", f.Method)
	}
	if f.Path != "" {
		q.Set("path", f.Path)
	}
	if f.MatchedID != "" {
		q.Set("stubId", f.MatchedID)
	}
	if f.Unmatched != nil {
		q.Set("unmatched", strconv.FormatBool(*f.Unmatched))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q.Encode()
}

// UnmatchedRequests lists requests no stub served, oldest first.
func (c *Client) UnmatchedRequests(ctx context.Context) ([]*requestlog.Entry, error) {
	var out engine.RequestsResponse
	if err := c.call(ctx, http.MethodGet, "/requests/unmatched", nil, &out); err != nil {
		return nil, err
	}
	return out.Requests, nil
}

// NearMisses lists the near misses of every unmatched request.
func (c *Client) NearMisses(ctx context.Context) ([]engine.NearMiss, error) {
	var out engine.NearMissesResponse
	if err := c.call(ctx, http.MethodGet, "/requests/unmatched/near-misses", nil, &out); err != nil {
		return nil, err
	}
	return out.NearMisses, nil
}

// FindUnmatchedRequests is UnmatchedRequests under the name the
// verification gate expects.
func (c *Client) FindUnmatchedRequests(ctx context.Context) ([]*requestlog.Entry, error) {
	return c.UnmatchedRequests(ctx)
}

// FindNearMissesForUnmatched is NearMisses under the name the verification
// gate expects.
func (c *Client) FindNearMissesForUnmatched(ctx context.Context) ([]engine.NearMiss, error) {
	return c.NearMisses(ctx)
}

// Reset deletes every stub and clears the journal.
func (c *Client) Reset(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/reset", nil, nil)
}

// call sends in as JSON (when non-nil) and decodes the answer into out
// (when non-nil).
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+engine.AdminPrefix+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{
			Code:    "connection_error",
			Message: fmt.Sprintf("cannot connect to engine at %s", c.baseURL),
			Err:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func parseError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var er *httputil.ErrorResponse
	if err := httputil.ReadError(resp); errors.As(err, &er) {
		apiErr.Code = er.Code
		apiErr.Message = er.Message
		apiErr.Err = er
	}
	return apiErr
}
