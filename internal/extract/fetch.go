package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/hyperjump/jidai/pkg/utils"
)

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	UserAgent     string
	Timeout       time.Duration
	MaxBodyBytes  int64
	RespectRobots bool
}

// Page is a downloaded resource.
type Page struct {
	URL         *url.URL
	ContentType string
	Body        []byte
}

// IsPDF reports whether the server labelled the body as a PDF or the body starts with a PDF header.
func (p *Page) IsPDF() bool {
	if mt, _, err := mime.ParseMediaType(p.ContentType); err == nil && mt == "application/pdf" {
		return true
	}
	return len(p.Body) >= 5 && string(p.Body[:5]) == "%PDF-"
}

// Fetcher downloads articles and documents over HTTP with a fixed user agent,
// a body size cap and optional robots.txt checks.
type Fetcher struct {
	client *http.Client
	cfg    FetcherConfig
	logger *zap.Logger

	mu     sync.Mutex
	robots map[string]*robotstxt.RobotsData
}

// NewFetcher returns a Fetcher. A nil client uses a client with cfg.Timeout.
func NewFetcher(cfg FetcherConfig, client *http.Client, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		client: client,
		cfg:    cfg,
		logger: utils.OrNop(logger),
		robots: make(map[string]*robotstxt.RobotsData),
	}
}

// Get downloads rawURL. Non-2xx statuses, robots.txt refusals and oversized bodies are errors.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if f.cfg.RespectRobots && !f.allowed(ctx, u) {
		return nil, errRobotsDisallow
	}

	resp, err := f.do(ctx, u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := f.readBody(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Page{URL: resp.Request.URL, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

func (f *Fetcher) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	return resp, nil
}

func (f *Fetcher) readBody(r io.Reader) ([]byte, error) {
	if f.cfg.MaxBodyBytes <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, errBodyTooLarge
	}
	return body, nil
}

// allowed consults the host's robots.txt, fetched once per host and kept for the
// lifetime of the Fetcher. Missing or unparsable robots files allow everything;
// transport failures allow this request and are retried on the next one.
func (f *Fetcher) allowed(ctx context.Context, u *url.URL) bool {
	host := u.Scheme + "://" + u.Host
	f.mu.Lock()
	data, ok := f.robots[host]
	f.mu.Unlock()
	if !ok {
		var cache bool
		data, cache = f.loadRobots(ctx, host)
		if cache {
			f.mu.Lock()
			f.robots[host] = data
			f.mu.Unlock()
		}
	}
	if data == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, robotsAgent(f.cfg.UserAgent))
}

// loadRobots fetches host's robots.txt. cache is false when the file could not be
// retrieved, so a transient failure is not remembered.
func (f *Fetcher) loadRobots(ctx context.Context, host string) (data *robotstxt.RobotsData, cache bool) {
	resp, err := f.do(ctx, host+"/robots.txt")
	if err != nil {
		f.logger.Debug("robots.txt unavailable", zap.String("host", host), zap.Error(err))
		return nil, false
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		f.logger.Debug("robots.txt read failed", zap.String("host", host), zap.Error(err))
		return nil, false
	}
	data, err = robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		f.logger.Debug("robots.txt unparsable", zap.String("host", host), zap.Error(err))
		return nil, true
	}
	return data, true
}

// robotsAgent reduces "jidai/1.0 (+url)" to the product token "jidai".
func robotsAgent(ua string) string {
	if i := strings.IndexAny(ua, "/ "); i > 0 {
		return ua[:i]
	}
	if ua == "" {
		return "*"
	}
	return ua
}
