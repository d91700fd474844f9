// Package avatar baja avatares de Discord (CDN) para el logo del QR.
package avatar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 5 * time.Second
	// avatares de Discord a size=128 pesan pocos KB
	maxBytes = 2 << 20
)

type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	hosts   map[string]bool
}

func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		hosts:   map[string]bool{"cdn.discordapp.com": true, "media.discordapp.net": true},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch: GET con throttle, un reintento en 429 respetando Retry-After.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return nil, fmt.Errorf("avatar: invalid url %q", rawURL)
	}
	if len(c.hosts) > 0 && !c.hosts[u.Hostname()] {
		return nil, fmt.Errorf("avatar: host %q not allowed", u.Hostname())
	}
	return c.get(ctx, u.String(), true)
}

func (c *Client) get(ctx context.Context, u string, retry bool) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/png,image/jpeg,image/webp,image/gif")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("avatar http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests && retry {
		if sec, _ := strconv.Atoi(res.Header.Get("Retry-After")); sec > 0 {
			select {
			case <-time.After(time.Duration(sec) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return c.get(ctx, u, false)
		}
	}
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, &APIError{Status: res.StatusCode, Body: string(b)}
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("avatar read: %w", err)
	}
	if len(b) > maxBytes {
		return nil, ErrTooLarge
	}
	return b, nil
}
