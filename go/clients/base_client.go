package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status code: %d, response: %s", e.StatusCode, e.Body)
}

// Response is a fully read backend response.
type Response struct {
	ContentType string
	Body        []byte
}

type BaseClient struct {
	baseURL *url.URL
	client  *http.Client
	headers map[string]string
}

func NewBaseClient(baseURL string) (*BaseClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &BaseClient{
		baseURL: u,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(map[string]string),
	}, nil
}

func (c *BaseClient) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *BaseClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// Resolve turns a reference into an absolute URL on the backend. Relative
// paths are resolved against the base URL; absolute URLs must point at
// the same host.
func (c *BaseClient) Resolve(ref string) (*url.URL, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parse reference %q: %w", ref, err)
	}
	abs := c.baseURL.ResolveReference(r)
	if abs.Scheme != c.baseURL.Scheme || abs.Host != c.baseURL.Host {
		return nil, fmt.Errorf("reference %q is not on %s", ref, c.baseURL.Host)
	}
	return abs, nil
}

func (c *BaseClient) MakeRequest(ctx context.Context, method, ref string, body io.Reader) (*Response, error) {
	u, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(responseBody)}
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{ContentType: resp.Header.Get("Content-Type"), Body: responseBody}, nil
}

func (c *BaseClient) Get(ctx context.Context, ref string) (*Response, error) {
	return c.MakeRequest(ctx, http.MethodGet, ref, nil)
}
