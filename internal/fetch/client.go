// Package fetch implements the resilient downloader (C2): retrying GETs
// with exponential backoff, per-source circuit breaking and politeness
// rate-limiting, and ZIP-archive fallback when a dated direct URL 404s.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/logging"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/telemetry"
)

const userAgent = "NYISO-Information-Dashboard/1.0 (+dashboard ingestion core; polite-scraper)"

// Config tunes the Client's HTTP behavior.
type Config struct {
	Timeout        time.Duration
	MaxRetries     int // retries after the first attempt for 5xx/timeout/conn-error paths
	MaxConcurrency int
	UserAgent      string
}

// DefaultConfig mirrors spec.md §4.2: 30s timeout, base 1s/factor 2/jitter
// <=30%/max 3 attempts.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		MaxRetries:     2,
		MaxConcurrency: 8,
		UserAgent:      userAgent,
	}
}

// Client is the downloader. One Client is shared process-wide; it holds a
// circuit breaker and a rate limiter per source code, both created lazily
// and protected by a single mutex (the teacher's
// infrastructure/providers.CircuitBreakerManager / RateLimiter pattern).
type Client struct {
	cfg       Config
	http      *http.Client
	semaphore chan struct{}

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	limiters map[string]*rate.Limiter

	log zerolog.Logger
	tel *telemetry.Registry
}

func New(cfg Config) *Client {
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		semaphore: make(chan struct{}, cfg.MaxConcurrency),
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
		limiters:  make(map[string]*rate.Limiter),
		log:       logging.Component("fetch"),
	}
}

// WithTelemetry attaches a telemetry.Registry that records retry attempts.
// Optional: a Client with no registry attached simply skips the metric.
func (c *Client) WithTelemetry(tel *telemetry.Registry) *Client {
	c.tel = tel
	return c
}

func (c *Client) breakerFor(sourceCode string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.breakers[sourceCode]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        sourceCode,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	c.breakers[sourceCode] = b
	return b
}

func (c *Client) limiterFor(sourceCode string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[sourceCode]; ok {
		return l
	}
	// Polite default: at most 2 requests/second per source, burst 2.
	l := rate.NewLimiter(rate.Limit(2), 2)
	c.limiters[sourceCode] = l
	return l
}

// Fetch performs a single GET with retry/backoff. It does not know about
// archive fallback; callers needing that behavior use FetchOrArchive.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	return c.fetchFor(ctx, "", url)
}

// fetchFor performs the retrying GET, scoping the circuit breaker / rate
// limiter to sourceCode when non-empty.
func (c *Client) fetchFor(ctx context.Context, sourceCode, url string) ([]byte, error) {
	do := func() ([]byte, error) {
		return c.attemptWithRetry(ctx, sourceCode, url)
	}

	if sourceCode == "" {
		return do()
	}

	if err := c.limiterFor(sourceCode).Wait(ctx); err != nil {
		return nil, err
	}

	breaker := c.breakerFor(sourceCode)
	result, err := breaker.Execute(func() (interface{}, error) {
		return do()
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *Client) attemptWithRetry(ctx context.Context, sourceCode, url string) ([]byte, error) {
	maxAttempts := c.cfg.MaxRetries + 1
	extra429 := 0
	var lastErr error
	var lastStatus int

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			c.tel.RecordRetry(sourceCode)
			backoff := computeBackoff(attempt)
			c.log.Debug().Str("url", url).Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying fetch")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		select {
		case c.semaphore <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		body, status, retryAfter, err := c.doOnce(ctx, url)
		<-c.semaphore

		if err != nil {
			lastErr = err
			continue // connection error: always retryable up to maxAttempts
		}

		if status == http.StatusNotFound {
			return nil, &NotFoundError{URL: url}
		}

		if status == http.StatusTooManyRequests {
			// 429: respect Retry-After, 4 additional attempts beyond the
			// normal budget, per spec.md §4.2.
			lastStatus = status
			lastErr = fmt.Errorf("HTTP %d", status)
			if extra429 < 4 {
				extra429++
				maxAttempts++
				wait := retryAfter
				if wait <= 0 {
					wait = computeBackoff(attempt + 1)
				}
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			continue
		}

		if status >= 500 || status == http.StatusRequestTimeout {
			lastStatus = status
			lastErr = fmt.Errorf("HTTP %d", status)
			continue
		}

		if status >= 400 {
			return nil, &NotFoundError{URL: url}
		}

		return body, nil
	}

	return nil, &TransientError{URL: url, Attempts: maxAttempts, LastStatus: lastStatus, Cause: lastErr}
}

func (c *Client) doOnce(ctx context.Context, url string) (body []byte, status int, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	ua := c.cfg.UserAgent
	if ua == "" {
		ua = userAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, convErr := strconv.Atoi(ra); convErr == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, retryAfter, err
	}

	return data, resp.StatusCode, retryAfter, nil
}

func computeBackoff(attempt int) time.Duration {
	base := time.Second
	backoff := base * time.Duration(1<<uint(attempt-1))
	jitter := time.Duration(rand.Float64() * 0.30 * float64(backoff))
	return backoff + jitter
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
