package sources

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/kova98/yars/models"
)

// RetryPolicy mirrors the classic urllib3 policy: after the n-th failed
// attempt the session sleeps BackoffFactor * 2^(n-1), capped at MaxBackoff.
type RetryPolicy struct {
	MaxRetries    uint64
	BackoffFactor time.Duration
	MaxBackoff    time.Duration
	StatusCodes   []int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    5,
		BackoffFactor: 2 * time.Second,
		MaxBackoff:    120 * time.Second,
		StatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

func (p RetryPolicy) retryable(code int) bool {
	return slices.Contains(p.StatusCodes, code)
}

func (p RetryPolicy) backoff() retry.Backoff {
	var b retry.Backoff
	if p.BackoffFactor > 0 {
		b = retry.NewExponential(p.BackoffFactor)
	} else {
		b = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	if p.MaxBackoff > 0 {
		b = retry.WithCappedDuration(p.MaxBackoff, b)
	}
	return retry.WithMaxRetries(p.MaxRetries, b)
}

type SessionConfig struct {
	ProxyURLs       []string
	Timeout         time.Duration
	RandomUserAgent bool
	Retry           RetryPolicy
	Metrics         *Metrics

	// RequestsPerMinute throttles every attempt, retries included. Zero
	// disables throttling.
	RequestsPerMinute int
}

// Getter fetches a JSON document. Session is the production implementation.
type Getter interface {
	GetJSON(ctx context.Context, rawURL string, params url.Values, dest any) error
}

// Session is the transport used by Client. It is safe for sequential use;
// the proxy pool it may hold is safe for concurrent use.
type Session struct {
	logger          *slog.Logger
	client          *http.Client
	pool            *ProxyPool
	retry           RetryPolicy
	randomUserAgent bool
	metrics         *Metrics
	limiter         *rate.Limiter
}

func NewSession(logger *slog.Logger, cfg SessionConfig) (*Session, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	s := &Session{
		logger:          logger,
		retry:           cfg.Retry,
		randomUserAgent: cfg.RandomUserAgent,
		metrics:         cfg.Metrics,
		limiter:         newLimiter(cfg.RequestsPerMinute),
	}

	if len(cfg.ProxyURLs) > 0 {
		pool, err := NewProxyPool(logger, cfg.ProxyURLs, cfg.Timeout, 0)
		if err != nil {
			return nil, err
		}
		s.pool = pool
		return s, nil
	}

	client, err := createClient("", cfg.Timeout)
	if err != nil {
		return nil, err
	}
	s.client = client

	return s, nil
}

// ProxyStats returns per proxy counters, or nil when no proxy is configured.
func (s *Session) ProxyStats() map[string]models.ProxyStats {
	if s.pool == nil {
		return nil
	}
	return s.pool.Stats()
}

// GetJSON issues a GET request, retrying transient status codes, and decodes
// the response body into dest.
func (s *Session) GetJSON(ctx context.Context, rawURL string, params url.Values, dest any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &RequestError{URL: rawURL, Err: err}
	}
	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	target := u.String()

	var body []byte
	attempt := 0
	err = retry.Do(ctx, s.retry.backoff(), func(ctx context.Context) error {
		attempt++
		b, err := s.get(ctx, target)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && s.retry.retryable(statusErr.Code) {
				s.logger.Info("transient status", "url", target, "status", statusErr.Code, "attempt", attempt)
				s.metrics.observeRetry()
				return retry.RetryableError(err)
			}
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		s.logger.Info("request unsuccessful", "url", target, "attempts", attempt, "error", err)
		return err
	}

	s.logger.Info("request successful", "url", target, "attempts", attempt)

	if err := json.Unmarshal(body, dest); err != nil {
		return &DecodeError{URL: target, Err: err}
	}
	return nil
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), 1)
}

func (s *Session) get(ctx context.Context, target string) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &RequestError{URL: target, Err: err}
		}
	}

	client, host, err := s.nextClient(ctx)
	if err != nil {
		return nil, &RequestError{URL: target, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &RequestError{URL: target, Err: err}
	}
	req.Header.Set("User-Agent", s.userAgent())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		s.metrics.observeRequest(0, start)
		s.markFailure(host)
		return nil, &RequestError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.metrics.observeRequest(resp.StatusCode, start)
	if err != nil {
		s.markFailure(host)
		return nil, &RequestError{URL: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests && s.pool != nil {
			s.pool.MarkRateLimited(host)
		}
		s.markFailure(host)
		return nil, &StatusError{URL: target, Code: resp.StatusCode, Body: truncate(string(body), 300)}
	}

	s.markSuccess(host)
	return body, nil
}

func (s *Session) nextClient(ctx context.Context) (*http.Client, string, error) {
	if s.pool == nil {
		return s.client, "", nil
	}
	return s.pool.Next(ctx)
}

func (s *Session) userAgent() string {
	if s.randomUserAgent {
		return randomUserAgent()
	}
	return defaultUserAgent
}

func (s *Session) markSuccess(host string) {
	if s.pool != nil {
		s.pool.MarkSuccess(host)
	}
}

func (s *Session) markFailure(host string) {
	if s.pool != nil {
		s.pool.MarkFailure(host)
	}
}
