// Package transport provides the HTTP implementation of goAccount.Transport
// for CouchDB-style backends. Session cookies are held in an in-memory cookie
// jar, so the client instance is the session.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
)

// Client performs JSON round trips against a single backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. A cookie jar is
// installed on it when it has none, because the session protocol depends on
// cookies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout on the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// NewClient builds a Client for the given base URL, e.g.
// "https://myapp.example.com/_api".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("transport: creating cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Request implements goAccount.Transport. Status codes are not interpreted
// here; error classification is the caller's job.
func (c *Client) Request(ctx context.Context, method, path string, opts goAccount.RequestOptions) (*goAccount.Response, error) {
	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("transport: encoding %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("transport: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.Username != "" {
		req.SetBasicAuth(opts.Username, opts.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: reading %s %s response: %w", method, path, err)
	}

	return &goAccount.Response{
		Status: resp.StatusCode,
		Body:   payload,
	}, nil
}
