package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedClient wraps an *http.Client with a token-bucket limiter so
// every stream driven against one provider shares a single outbound rate
// budget, rather than each stream dialing its own unbounded client.
type RateLimitedClient struct {
	HTTP    *http.Client
	Limiter *rate.Limiter
}

// NewRateLimitedClient returns a client admitting rps requests per second,
// bursting up to burst.
func NewRateLimitedClient(rps float64, burst int) *RateLimitedClient {
	return &RateLimitedClient{
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Do waits for rate-limiter admission, then executes req against ctx.
func (c *RateLimitedClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.HTTP.Do(req.WithContext(ctx))
}

// DoJSON executes req and decodes a successful JSON body into out.
func (c *RateLimitedClient) DoJSON(ctx context.Context, req *http.Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ingest: %s %s: status %d: %s", req.Method, req.URL, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
