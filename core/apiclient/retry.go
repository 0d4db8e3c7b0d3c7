package apiclient

import (
	"context"
	"net/http"
	"time"
)

// retryableStatus lists the transient statuses worth retrying. Anything
// else, success or client error, is returned to the caller immediately.
var retryableStatus = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// do executes one logical request with bounded-attempt exponential
// backoff. build is invoked once per attempt so request bodies can be
// replayed. After exhausting attempts, a final retryable status is
// returned as a response (the caller decides how to treat it) while a
// final transport failure is propagated as an error. Backoff is
// deterministic: base * 2^(attempt-1), capped, no jitter.
func (c *Client) do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	maxAttempts := c.cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err == nil {
			if _, retry := retryableStatus[resp.StatusCode]; !retry {
				return resp, nil
			}
			if attempt == maxAttempts {
				return resp, nil
			}
			// Drop the transient response before waiting for the retry.
			_, _ = readBody(resp)
			lastErr = nil
		} else {
			lastErr = err
			if attempt == maxAttempts {
				break
			}
		}

		c.sleep(c.backoff(attempt))
	}
	return nil, lastErr
}

// backoff computes the wait before the attempt following the given one.
func (c *Client) backoff(attempt int) time.Duration {
	base := time.Duration(c.cfg.BaseWaitMillis) * time.Millisecond
	if base <= 0 {
		base = 2300 * time.Millisecond
	}
	ceiling := time.Duration(c.cfg.MaxWaitMillis) * time.Millisecond
	if ceiling <= 0 {
		ceiling = 30 * time.Second
	}
	wait := base << uint(attempt-1)
	if wait <= 0 || wait > ceiling {
		wait = ceiling
	}
	return wait
}
