package avatar

import (
	"net/http"

	"golang.org/x/time/rate"
)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithAllowedHosts reemplaza la lista de hosts; sin hosts no se filtra.
func WithAllowedHosts(hosts ...string) Option {
	return func(c *Client) {
		c.hosts = make(map[string]bool, len(hosts))
		for _, h := range hosts {
			c.hosts[h] = true
		}
	}
}
