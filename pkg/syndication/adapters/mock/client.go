package mock

import (
	"context"
	"sync"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// RecordingClient records every request before delegating to Next. With a
// nil Next it answers with Response.
type RecordingClient struct {
	mu       sync.Mutex
	Next     syndication.RemoteAPIClient
	Response *syndication.Response
	Err      error
	Requests []*syndication.Request

	// OnDo, when set, runs with the caller's context before each request
	OnDo func(ctx context.Context, req *syndication.Request)
}

var _ syndication.RemoteAPIClient = (*RecordingClient)(nil)

// Do records req.
func (c *RecordingClient) Do(ctx context.Context, req *syndication.Request) (*syndication.Response, error) {
	c.mu.Lock()
	c.Requests = append(c.Requests, req)
	onDo := c.OnDo
	c.mu.Unlock()

	if onDo != nil {
		onDo(ctx, req)
	}

	if c.Next != nil {
		return c.Next.Do(ctx, req)
	}
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Response, nil
}

// Calls returns the number of recorded requests.
func (c *RecordingClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}

// Reset clears recorded requests.
func (c *RecordingClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Requests = nil
}
