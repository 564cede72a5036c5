package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// RetryConfig configures retry behavior for failed requests.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns a RetryConfig with sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// Retrying wraps a RemoteAPIClient and retries network failures and 5xx
// responses with exponential backoff. Other responses are returned as-is.
type Retrying struct {
	next   syndication.RemoteAPIClient
	cfg    RetryConfig
	logger hclog.Logger
}

var _ syndication.RemoteAPIClient = (*Retrying)(nil)

// NewRetrying wraps next.
func NewRetrying(next syndication.RemoteAPIClient, cfg RetryConfig, logger hclog.Logger) *Retrying {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Retrying{next: next, cfg: cfg, logger: logger}
}

func (r *Retrying) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if r.cfg.InitialInterval > 0 {
		eb.InitialInterval = r.cfg.InitialInterval
	}
	if r.cfg.MaxInterval > 0 {
		eb.MaxInterval = r.cfg.MaxInterval
	}
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(r.cfg.MaxRetries)), ctx)
}

// Do executes req, retrying as configured.
func (r *Retrying) Do(ctx context.Context, req *syndication.Request) (*syndication.Response, error) {
	var resp *syndication.Response
	attempt := 0

	op := func() error {
		attempt++
		var err error
		resp, err = r.next.Do(ctx, req)
		if err != nil {
			if syndication.KindOf(err) != syndication.KindNetwork {
				return backoff.Permanent(err)
			}
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error (status %d)", resp.StatusCode)
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn("retrying request", "method", req.Method, "url", req.URL,
			"attempt", attempt, "wait", wait, "error", err)
	}

	err := backoff.RetryNotify(op, r.newBackOff(ctx), notify)
	if err != nil && resp != nil && resp.StatusCode >= 500 {
		// Retries exhausted on a server error: hand back the last response.
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
