// Package source loads raw snapshot bytes from a file, stdin, or a dataset URL.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/leadscope/pkg/auth"
	"github.com/codeGROOVE-dev/leadscope/pkg/httpcache"
)

// ErrUnsupportedRef is returned for references that are neither a path, "-", nor an http(s) URL.
var ErrUnsupportedRef = errors.New("unsupported snapshot reference")

// Stdin is the reference that reads from standard input.
const Stdin = "-"

const defaultTimeout = 60 * time.Second

type config struct {
	logger         *slog.Logger
	cache          httpcache.Cacher
	client         *http.Client
	stdin          io.Reader
	cookieSources  []auth.Source
	browserCookies bool
}

// Option configures Load.
type Option func(*config)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithCache caches downloaded snapshots.
func WithCache(cache httpcache.Cacher) Option {
	return func(c *config) { c.cache = cache }
}

// WithHTTPClient replaces the default client. Its cookie jar is ignored.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.client = client }
}

// WithStdin replaces os.Stdin for the "-" reference.
func WithStdin(r io.Reader) Option {
	return func(c *config) { c.stdin = r }
}

// WithCookieSource adds a cookie source consulted after the environment.
func WithCookieSource(src auth.Source) Option {
	return func(c *config) { c.cookieSources = append(c.cookieSources, src) }
}

// WithBrowserCookies reads session cookies for the dataset host from local browsers.
func WithBrowserCookies() Option {
	return func(c *config) { c.browserCookies = true }
}

// Load returns the bytes behind ref: "-" reads stdin, http(s) URLs are
// downloaded, and anything else is read as a file path.
func Load(ctx context.Context, ref string, opts ...Option) ([]byte, error) {
	cfg := &config{
		logger: slog.Default(),
		client: &http.Client{Timeout: defaultTimeout},
		stdin:  os.Stdin,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, fmt.Errorf("%w: empty reference", ErrUnsupportedRef)
	case ref == Stdin:
		data, err := io.ReadAll(cfg.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	case isURL(ref):
		return fetch(ctx, ref, cfg)
	case strings.Contains(ref, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRef, ref)
	default:
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("read snapshot file: %w", err)
		}
		return data, nil
	}
}

func isURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func fetch(ctx context.Context, ref string, cfg *config) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRef, ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", httpcache.UserAgent)
	req.Header.Set("Accept", "application/json")
	if token := auth.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := *cfg.client
	client.Jar = nil

	sources := append([]auth.Source{auth.EnvSource{}}, cfg.cookieSources...)
	if cfg.browserCookies {
		sources = append(sources, auth.NewBrowserSource(cfg.logger))
	}
	cookies, err := auth.ChainSources(ctx, u.Hostname(), sources...)
	if err != nil {
		cfg.logger.Warn("failed to read cookies, continuing without them", "host", u.Hostname(), "error", err)
	}
	if len(cookies) > 0 {
		jar, err := auth.NewCookieJar(u, cookies)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		client.Jar = jar
		cfg.logger.Debug("using session cookies", "host", u.Hostname(), "count", len(cookies))
	}

	data, err := httpcache.FetchURL(ctx, cfg.cache, &client, req, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	return data, nil
}
