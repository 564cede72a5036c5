// Package transport executes syndication requests over HTTP.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// Client implements syndication.RemoteAPIClient on net/http. It makes
// exactly one attempt per call.
type Client struct {
	http   *http.Client
	cfg    *Config
	logger hclog.Logger
}

var _ syndication.RemoteAPIClient = (*Client)(nil)

// New creates a Client. A nil cfg uses DefaultConfig.
func New(cfg *Config, logger hclog.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{http: cfg.NewHTTPClient(), cfg: cfg, logger: logger}, nil
}

// NewWithHTTPClient wraps an existing http.Client.
func NewWithHTTPClient(hc *http.Client, logger hclog.Logger) *Client {
	cfg := DefaultConfig()
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{http: hc, cfg: cfg, logger: logger}
}

// Do executes req and reads the full response body.
func (c *Client) Do(ctx context.Context, req *syndication.Request) (*syndication.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range req.Header {
		httpReq.Header[k] = v
	}
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed", "method", req.Method, "url", req.URL, "error", err)
		return nil, syndication.WrapError(syndication.KindNetwork, req.Method+" "+req.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, syndication.WrapError(syndication.KindNetwork, req.Method+" "+req.URL,
			fmt.Errorf("failed to read response body: %w", err))
	}
	if int64(len(data)) > c.cfg.MaxBodyBytes {
		c.logger.Debug("response body too large", "method", req.Method, "url", req.URL, "limit", c.cfg.MaxBodyBytes)
		return nil, &syndication.Error{
			Kind:       syndication.KindRemoteRejected,
			Op:         req.Method + " " + req.URL,
			Message:    fmt.Sprintf("response body exceeds %d bytes", c.cfg.MaxBodyBytes),
			StatusCode: resp.StatusCode,
		}
	}

	c.logger.Trace("request complete", "method", req.Method, "url", req.URL, "status", resp.StatusCode)
	return &syndication.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
