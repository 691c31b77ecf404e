package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "GachaGetchaBot/1.0 (+https://gachagetcha.kr/bot)"

// Fetcher retrieves pages from shop sources politely: a shared rate limiter,
// per-host robots.txt rules, and an identifying user agent.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string

	mu     sync.RWMutex
	robots map[string]*robotstxt.RobotsData
	expiry map[string]time.Time
}

// NewFetcher creates a fetcher. client may be nil, in which case a default
// client with a 30s timeout is used.
func NewFetcher(client *http.Client, limiter *rate.Limiter) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{
		client:    client,
		limiter:   limiter,
		userAgent: defaultUserAgent,
		robots:    make(map[string]*robotstxt.RobotsData),
		expiry:    make(map[string]time.Time),
	}
}

// Fetch retrieves the given URL, honoring robots.txt and the rate limit.
// Disallowed URLs return an error without a request being made.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	allowed, err := f.allowed(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("fetch %s: disallowed by robots.txt", rawURL)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// allowed checks the target's robots.txt, caching rules per host for an
// hour. A host whose robots.txt cannot be fetched or parsed is treated as
// allowing everything.
func (f *Fetcher) allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse url: %w", err)
	}

	data := f.robotsFor(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true, nil
	}
	return data.FindGroup(f.userAgent).Test(u.Path), nil
}

func (f *Fetcher) robotsFor(ctx context.Context, host string) *robotstxt.RobotsData {
	f.mu.RLock()
	data, ok := f.robots[host]
	exp := f.expiry[host]
	f.mu.RUnlock()
	if ok && time.Now().Before(exp) {
		return data
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if data, ok := f.robots[host]; ok && time.Now().Before(f.expiry[host]) {
		return data
	}

	data = f.fetchRobots(ctx, host)
	f.robots[host] = data
	f.expiry[host] = time.Now().Add(time.Hour)
	return data
}

func (f *Fetcher) fetchRobots(ctx context.Context, host string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data
}
