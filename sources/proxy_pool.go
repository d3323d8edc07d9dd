package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/proxy"

	"github.com/kova98/yars/models"
)

const rateLimitCooldown = 30 * time.Second

// ProxyPool rotates requests over a set of proxies. A proxy that answered
// 429 is skipped until its cooldown expires.
type ProxyPool struct {
	logger      *slog.Logger
	clients     []*http.Client
	hosts       []string
	index       atomic.Uint64
	cooldowns   map[int]time.Time
	lastUsed    map[int]time.Time
	successes   map[int]int
	failures    map[int]int
	cooldownMu  sync.RWMutex
	minInterval time.Duration // minimum time between uses of the same proxy
}

func NewProxyPool(logger *slog.Logger, proxyURLs []string, timeout, minInterval time.Duration) (*ProxyPool, error) {
	if len(proxyURLs) == 0 {
		return nil, errors.New("no proxy URLs provided")
	}

	clients := make([]*http.Client, 0, len(proxyURLs))
	hosts := make([]string, 0, len(proxyURLs))
	seen := make(map[string]bool)

	for _, proxyURL := range proxyURLs {
		if seen[proxyURL] {
			if parsed, err := url.Parse(proxyURL); err == nil {
				logger.Warn("duplicate proxy URL, skipping", "host", parsed.Host)
			}
			continue
		}
		seen[proxyURL] = true

		client, err := createClient(proxyURL, timeout)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)

		// Extract host only (no credentials)
		if parsed, err := url.Parse(proxyURL); err == nil {
			hosts = append(hosts, parsed.Host)
		} else {
			hosts = append(hosts, "unknown")
		}
	}

	logger.Info("proxy pool created", "count", len(clients), "hosts", hosts)

	return &ProxyPool{
		logger:      logger,
		clients:     clients,
		hosts:       hosts,
		cooldowns:   make(map[int]time.Time),
		lastUsed:    make(map[int]time.Time),
		successes:   make(map[int]int),
		failures:    make(map[int]int),
		minInterval: minInterval,
	}, nil
}

// createClient builds a traced client that sends both http and https traffic
// through proxyURL. An empty proxyURL yields a direct client.
func createClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport, err := createTransport(proxyURL)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(transport),
	}, nil
}

func createTransport(proxyURL string) (*http.Transport, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL == "" {
		return base, nil
	}

	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}

	switch parsedURL.Scheme {
	case "http", "https":
		base.Proxy = http.ProxyURL(parsedURL)
		return base, nil
	case "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", parsedURL.Scheme)
	}

	var auth *proxy.Auth
	if parsedURL.User != nil {
		password, _ := parsedURL.User.Password()
		auth = &proxy.Auth{
			User:     parsedURL.User.Username(),
			Password: password,
		}
	}

	dialer, err := proxy.SOCKS5("tcp", parsedURL.Host, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer: %w", err)
	}

	base.Proxy = nil
	base.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}

	return base, nil
}

// Next returns the next proxy client that is neither cooling down nor used
// within minInterval, waiting for one if necessary.
func (p *ProxyPool) Next(ctx context.Context) (*http.Client, string, error) {
	n := len(p.clients)

	p.cooldownMu.Lock()

	for {
		now := time.Now()

		for attempt := 0; attempt < n; attempt++ {
			idx := p.index.Add(1) - 1
			i := int(idx % uint64(n))

			if cooldownUntil, ok := p.cooldowns[i]; ok && now.Before(cooldownUntil) {
				continue
			}

			if lastUsed, ok := p.lastUsed[i]; ok && now.Sub(lastUsed) < p.minInterval {
				continue
			}

			p.lastUsed[i] = now
			p.cooldownMu.Unlock()
			return p.clients[i], p.hosts[i], nil
		}

		// All busy or cooling down - find the one available soonest
		var soonestAvailable time.Time
		for i := 0; i < n; i++ {
			availableAt := p.lastUsed[i].Add(p.minInterval)
			if cooldownUntil, ok := p.cooldowns[i]; ok && cooldownUntil.After(availableAt) {
				availableAt = cooldownUntil
			}

			if soonestAvailable.IsZero() || availableAt.Before(soonestAvailable) {
				soonestAvailable = availableAt
			}
		}

		waitDuration := time.Until(soonestAvailable)
		if waitDuration > 0 {
			p.cooldownMu.Unlock()
			p.logger.Debug("all proxies busy, waiting", "wait_ms", waitDuration.Milliseconds())
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(waitDuration):
			}
			p.cooldownMu.Lock()
		}
	}
}

// MarkRateLimited puts a proxy on cooldown.
func (p *ProxyPool) MarkRateLimited(host string) {
	p.cooldownMu.Lock()
	defer p.cooldownMu.Unlock()

	for i, h := range p.hosts {
		if h == host {
			p.cooldowns[i] = time.Now().Add(rateLimitCooldown)
			p.logger.Debug("proxy on cooldown", "host", host, "duration_seconds", rateLimitCooldown.Seconds())
			return
		}
	}
}

func (p *ProxyPool) MarkSuccess(host string) {
	p.cooldownMu.Lock()
	defer p.cooldownMu.Unlock()

	for i, h := range p.hosts {
		if h == host {
			p.successes[i]++
			return
		}
	}
}

func (p *ProxyPool) MarkFailure(host string) {
	p.cooldownMu.Lock()
	defer p.cooldownMu.Unlock()

	for i, h := range p.hosts {
		if h == host {
			p.failures[i]++
			return
		}
	}
}

// Stats returns success and failure counts keyed by proxy host.
func (p *ProxyPool) Stats() map[string]models.ProxyStats {
	p.cooldownMu.RLock()
	defer p.cooldownMu.RUnlock()

	stats := make(map[string]models.ProxyStats, len(p.hosts))
	for i, h := range p.hosts {
		stats[h] = models.ProxyStats{
			Successes: p.successes[i],
			Failures:  p.failures[i],
		}
	}
	return stats
}
