package geocode

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header. Public Nominatim rejects anonymous clients.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout bounds a single HTTP round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxAttempts sets how many times an unavailable lookup is tried. 1 disables retries.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the retry interval bounds.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		c.baseBackoff = initial
		c.maxBackoff = max
	}
}

// WithCacheSize bounds the positive-result cache. Zero disables caching.
func WithCacheSize(n int64) Option {
	return func(c *Client) { c.cacheSize = n }
}

// WithBreakerThreshold sets how many consecutive transport failures open the breaker.
func WithBreakerThreshold(n uint32) Option {
	return func(c *Client) {
		if n > 0 {
			c.breakerThreshold = n
		}
	}
}

// WithBreakerCooldown sets how long the breaker stays open before probing again.
func WithBreakerCooldown(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.breakerCooldown = d
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}
