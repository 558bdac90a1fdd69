// Package geocode resolves free-text place names to coordinates through a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/ristretto"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	jerrors "github.com/mycelian/travelmap/internal/errors"
	"github.com/mycelian/travelmap/internal/model"
)

const (
	defaultTimeout          = 10 * time.Second
	defaultUserAgent        = "travelmap/1.0"
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 30 * time.Second
)

// Client resolves place names. Safe for concurrent use.
type Client struct {
	baseURL          string
	userAgent        string
	timeout          time.Duration
	maxAttempts      int
	baseBackoff      time.Duration
	maxBackoff       time.Duration
	cacheSize        int64
	breakerThreshold uint32
	breakerCooldown  time.Duration
	httpClient       *http.Client
	log              zerolog.Logger

	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	cache   *ristretto.Cache

	inflight atomic.Int64
}

// New builds a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("geocode: base URL is required")
	}
	c := &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		userAgent:        defaultUserAgent,
		timeout:          defaultTimeout,
		maxAttempts:      1,
		baseBackoff:      200 * time.Millisecond,
		maxBackoff:       2 * time.Second,
		breakerThreshold: defaultBreakerThreshold,
		breakerCooldown:  defaultBreakerCooldown,
		log:              zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}

	if c.httpClient != nil {
		c.http = resty.NewWithClient(c.httpClient)
	} else {
		c.http = resty.New()
	}
	c.http.SetBaseURL(c.baseURL).
		SetHeader("User-Agent", c.userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(c.timeout)

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "geocoder",
		Timeout: c.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.breakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("geocoder breaker state changed")
			if to == gobreaker.StateOpen {
				breakerState.Set(1)
			} else {
				breakerState.Set(0)
			}
		},
		// a negative answer is a healthy service
		IsSuccessful: func(err error) bool {
			return err == nil || jerrors.Is(err, jerrors.KindPlaceNotFound)
		},
	})

	if c.cacheSize > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: c.cacheSize * 10,
			MaxCost:     c.cacheSize,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("geocode cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Busy reports whether any Resolve call is in flight.
func (c *Client) Busy() bool {
	return c.inflight.Load() > 0
}

// BreakerState reports the circuit breaker state: "closed", "half-open" or "open".
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Close releases the result cache.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Resolve returns the coordinate of the best match for place.
//
// Zero results is KindPlaceNotFound and is never retried. Transport failures,
// non-2xx answers and malformed bodies are KindLookupUnavailable and are retried
// with exponential backoff up to the configured attempt count.
func (c *Client) Resolve(ctx context.Context, place string) (model.Location, error) {
	query := strings.TrimSpace(place)
	if query == "" {
		return model.Location{}, jerrors.New(jerrors.KindInvalid, "place is required")
	}
	key := strings.ToLower(query)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			requestsTotal.WithLabelValues("cache_hit").Inc()
			return v.(model.Location), nil
		}
	}

	c.inflight.Add(1)
	defer c.inflight.Add(-1)

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.baseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = c.maxBackoff
	exp.Reset()

	var (
		loc model.Location
		err error
	)
	for attempt := 1; ; attempt++ {
		loc, err = c.attempt(ctx, query)
		if err == nil || !jerrors.IsRecoverable(err) || attempt >= c.maxAttempts {
			break
		}
		wait := exp.NextBackOff()
		c.log.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Str("place", query).Msg("geocode retry")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			err = jerrors.Wrap(jerrors.KindLookupUnavailable, "geocode cancelled", ctx.Err())
			requestsTotal.WithLabelValues("unavailable").Inc()
			return model.Location{}, err
		}
	}

	switch {
	case err == nil:
		requestsTotal.WithLabelValues("ok").Inc()
		if c.cache != nil {
			c.cache.Set(key, loc, 1)
			c.cache.Wait()
		}
	case jerrors.Is(err, jerrors.KindPlaceNotFound):
		requestsTotal.WithLabelValues("not_found").Inc()
	default:
		requestsTotal.WithLabelValues("unavailable").Inc()
	}
	return loc, err
}

func (c *Client) attempt(ctx context.Context, query string) (model.Location, error) {
	v, err := c.breaker.Execute(func() (interface{}, error) {
		return c.lookup(ctx, query)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return model.Location{}, jerrors.Wrap(jerrors.KindLookupUnavailable, "geocoder temporarily disabled", err)
	}
	if err != nil {
		return model.Location{}, err
	}
	return v.(model.Location), nil
}

// searchResult is one Nominatim candidate. Coordinates arrive as strings.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *Client) lookup(ctx context.Context, query string) (model.Location, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      query,
			"format": "json",
			"limit":  "1",
		}).
		Get("/search")
	if err != nil {
		return model.Location{}, jerrors.Wrap(jerrors.KindLookupUnavailable, "geocode request failed", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return model.Location{}, jerrors.Newf(jerrors.KindLookupUnavailable, "geocoder status %d", resp.StatusCode())
	}

	var results []searchResult
	if err := json.Unmarshal(resp.Body(), &results); err != nil {
		return model.Location{}, jerrors.Wrap(jerrors.KindLookupUnavailable, "decode geocoder response", err)
	}
	if len(results) == 0 {
		return model.Location{}, jerrors.Newf(jerrors.KindPlaceNotFound, "no match for %q", query)
	}
	return parseLocation(results[0])
}

func parseLocation(r searchResult) (model.Location, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
	if err != nil {
		return model.Location{}, jerrors.Wrap(jerrors.KindLookupUnavailable, "bad latitude", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
	if err != nil {
		return model.Location{}, jerrors.Wrap(jerrors.KindLookupUnavailable, "bad longitude", err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return model.Location{}, jerrors.Newf(jerrors.KindLookupUnavailable, "coordinate out of range: %v,%v", lat, lng)
	}
	return model.Location{Lat: lat, Lng: lng}, nil
}
