package httputil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// NewClient builds an HTTP client with sane transport limits for calls to
// the agent and search backends.
func NewClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Retry runs fn up to attempts times with exponential backoff between tries,
// stopping early when the context is done.
func Retry(ctx context.Context, attempts int, initial, max time.Duration, fn func() error) error {
	if attempts <= 1 {
		return fn()
	}
	d := initial
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := fn(); err != nil {
			if i == attempts-1 {
				return err
			}
			if d < max {
				d *= 2
				if d > max {
					d = max
				}
			}
			continue
		}
		return nil
	}
	return errors.New("retry: exhausted")
}
