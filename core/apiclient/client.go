package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Client talks to both API transports (cursor-protocol GraphQL and
// page-protocol report data) with shared retry behavior. It is a scoped
// resource: construct it once per run and thread it through the fetchers.
type Client struct {
	http    *http.Client
	baseURL string
	cfg     Config

	// sleep is indirected so tests can observe backoff without waiting.
	sleep func(time.Duration)
}

// NewClient creates a client from configuration. The configuration is
// validated up front; an incomplete one is a fatal startup fault.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 120
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	// Create custom transport with strict timeouts
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	return &Client{
		http:    &http.Client{Transport: transport},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		cfg:     cfg,
		sleep:   time.Sleep,
	}, nil
}

// FetchError is a terminal fetch fault: a non-2xx response after retries,
// a malformed envelope, or a GraphQL-level error list. It aborts the whole
// run, because reconciling partial data would under-report discrepancies.
type FetchError struct {
	// Entity names the entity type whose fetch failed.
	Entity string
	// Context locates the failure within the pagination sequence.
	Context string
	// Status is the HTTP status, or 0 for non-HTTP faults.
	Status int
	// Body is the truncated response body or fault description.
	Body string
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s %s: status=%d body=%s", e.Entity, e.Context, e.Status, e.Body)
	}
	return fmt.Sprintf("fetch %s %s: %s", e.Entity, e.Context, e.Body)
}

// pageDelay blocks between pagination requests.
func (c *Client) pageDelay() {
	if d := c.cfg.PageDelayMillis; d > 0 {
		c.sleep(time.Duration(d) * time.Millisecond)
	}
}

// readBody drains and closes a response body.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// decodeJSON decodes a response body generically with json.Number enabled,
// so numeric values keep their exact textual form for normalization.
func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
