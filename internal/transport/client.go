// Package transport owns the outbound HTTP policy for the bridge: pooled
// clients, timeouts, and retry with backoff. Components above it never retry
// per message kind; a delivery that fails here is surfaced to the caller.
package transport

import (
	"net"
	"net/http"
	"time"
)

// NewClient returns an HTTP client with connection pooling tuned for the
// bridge's two upstreams (flow engine, channel provider).
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
