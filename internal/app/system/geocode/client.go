package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// ClientConfig tunes the HTTP behaviour shared by providers.
type ClientConfig struct {
	Timeout          time.Duration
	Retries          int
	Backoff          time.Duration
	FailureThreshold int
	CircuitReset     time.Duration
	UserAgent        string
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.Backoff <= 0 {
		c.Backoff = 200 * time.Millisecond
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.CircuitReset <= 0 {
		c.CircuitReset = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "swarmhub-geocoder"
	}
	return c
}

// errPermanent marks responses that retrying cannot fix.
var errPermanent = errors.New("permanent")

// client is a JSON GET client with retries and a small circuit breaker.
type client struct {
	http *http.Client
	cfg  ClientConfig

	failures  int32
	openUntil int64 // unix nano
}

func newClient(cfg ClientConfig, hc *http.Client) *client {
	cfg = cfg.withDefaults()
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &client{http: hc, cfg: cfg}
}

func (c *client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.failures) < int32(c.cfg.FailureThreshold) {
		return false
	}
	if time.Now().UnixNano() < atomic.LoadInt64(&c.openUntil) {
		return true
	}
	// half-open: let one request through
	atomic.StoreInt32(&c.failures, 0)
	return false
}

func (c *client) recordFailure() {
	if atomic.AddInt32(&c.failures, 1) >= int32(c.cfg.FailureThreshold) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.cfg.CircuitReset).UnixNano())
	}
}

func (c *client) recordSuccess() {
	atomic.StoreInt32(&c.failures, 0)
}

// getJSON fetches url and decodes the body into out, retrying network
// errors, 429 and 5xx responses.
func (c *client) getJSON(ctx context.Context, url string, out any) error {
	if c.isCircuitOpen() {
		return ErrCircuitOpen
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.Backoff * time.Duration(attempt)):
			}
		}

		err := c.once(ctx, url, out)
		if err == nil {
			c.recordSuccess()
			return nil
		}
		lastErr = err
		if errors.Is(err, errPermanent) || ctx.Err() != nil {
			break
		}
	}
	c.recordFailure()
	return lastErr
}

func (c *client) once(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", errPermanent, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: upstream status %d", errPermanent, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode: %v", errPermanent, err)
	}
	return nil
}
