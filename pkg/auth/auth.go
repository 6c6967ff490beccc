// Package auth supplies credentials for the host a snapshot is loaded from.
// Scraper dataset endpoints are usually public; private storage buckets and
// dashboards sit behind a bearer token or a browser session.
package auth

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
)

// ErrNoHost is returned when a dataset URL has no host to scope cookies to.
var ErrNoHost = errors.New("dataset URL has no host")

// NewCookieJar returns a jar holding session cookies for exactly the dataset's host.
// Cookies are host-only, so sibling subdomains never see them, and Secure when
// the dataset is served over https.
func NewCookieJar(dataset *url.URL, cookies map[string]string) (*cookiejar.Jar, error) {
	if dataset == nil || dataset.Hostname() == "" {
		return nil, ErrNoHost
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	host := &url.URL{Scheme: strings.ToLower(dataset.Scheme), Host: strings.ToLower(dataset.Hostname()), Path: "/"}
	secure := host.Scheme == "https"

	var httpCookies []*http.Cookie
	for _, name := range slices.Sorted(maps.Keys(cookies)) {
		if cookies[name] == "" {
			continue
		}
		httpCookies = append(httpCookies, &http.Cookie{
			Name:     name,
			Value:    cookies[name],
			Path:     "/",
			Secure:   secure,
			HttpOnly: true,
		})
	}

	jar.SetCookies(host, httpCookies)
	return jar, nil
}

// Source is a source of session cookies for a host.
type Source interface {
	// Cookies returns cookies for the given domain, or nil if unavailable.
	Cookies(ctx context.Context, domain string) (map[string]string, error)
}

// ChainSources returns cookies from the first source that provides them.
func ChainSources(ctx context.Context, domain string, sources ...Source) (map[string]string, error) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		cookies, err := src.Cookies(ctx, domain)
		if err != nil {
			return nil, err
		}
		if len(cookies) > 0 {
			return cookies, nil
		}
	}
	return nil, nil //nolint:nilnil // no source had cookies, but this is not an error
}
