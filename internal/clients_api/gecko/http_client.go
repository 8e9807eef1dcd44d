package gecko

// Package gecko contains the client for the GeckoTerminal public API.
// This file is the transport layer: it issues HTTP requests with rate
// limiting, circuit breaking and bounded retries, and knows nothing about
// trades or pools.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"spyton-bot/internal/infra/log"
	"spyton-bot/internal/infra/retry"
	"spyton-bot/internal/models"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public GeckoTerminal API root.
const DefaultBaseURL = "https://api.geckoterminal.com/api/v2"

// ClientConfig tunes the HTTP client. Zero values fall back to defaults.
type ClientConfig struct {
	BaseURL         string
	Network         string // network id used in API paths, e.g. "ton"
	RequestTimeout  time.Duration
	MaxRetries      int
	MaxResponseSize int64
	RateLimit       int // requests per second across all tokens
	RateBurst       int
}

// Client is the GeckoTerminal API client. One instance is shared by all
// tracked tokens so the rate limiter and circuit breaker guard the single
// shared quota.
type Client struct {
	baseURL         string
	network         string
	httpClient      *http.Client
	rateLimiter     *rate.Limiter
	circuitBreaker  *gobreaker.CircuitBreaker
	maxResponseSize int64
	retryOpts       retry.Options
}

// NewClient creates a ready-to-use GeckoTerminal client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Network == "" {
		cfg.Network = "ton"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 20 * time.Second
	}
	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = 10 * 1024 * 1024
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = cfg.RateLimit * 2
	}

	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeckoTerminalAPI",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		baseURL:         cfg.BaseURL,
		network:         cfg.Network,
		rateLimiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		circuitBreaker:  circuitBreaker,
		maxResponseSize: cfg.MaxResponseSize,
		retryOpts: retry.Options{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  500 * time.Millisecond,
			MaxDelay:   5 * time.Second,
		},
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				DisableKeepAlives: false,
				MaxIdleConns:      10,
				IdleConnTimeout:   90 * time.Second,
			},
		},
	}
}

// get performs a GET against the API and returns the response body. The
// returned error wraps models.ErrRateLimited after exhausted 429 retries and
// models.ErrSourceUnavailable for every other failure, so callers can route
// the two cases differently.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var respBody []byte
	err := retry.Do(ctx, c.retryOpts, func() error {
		_, cbErr := c.circuitBreaker.Execute(func() (interface{}, error) {
			body, reqErr := c.doRequest(ctx, endpoint)
			if reqErr != nil {
				return nil, reqErr
			}
			respBody = body
			return body, nil
		})
		return cbErr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
		}
		if retry.IsRateLimited(err) {
			log.LogWarn("GeckoTerminal rate limit hit", zap.String("endpoint", path))
			return nil, fmt.Errorf("%w: %v", models.ErrRateLimited, err)
		}
		log.LogError("GeckoTerminal request failed", zap.String("endpoint", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	return respBody, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       body,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	log.LogDebug("GeckoTerminal request ok",
		zap.String("endpoint", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))

	return body, nil
}
