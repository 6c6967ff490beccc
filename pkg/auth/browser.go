package auth

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // Import all browser cookie stores
	"github.com/browserutils/kooky/browser/chrome"
	"github.com/browserutils/kooky/browser/firefox"
)

// BrowserSource reads the session cookies a logged-in browser holds for the snapshot host.
type BrowserSource struct {
	logger *slog.Logger
	names  map[string]bool
}

// BrowserOption configures a BrowserSource.
type BrowserOption func(*BrowserSource)

// WithCookieNames limits the result to the named cookies.
func WithCookieNames(names ...string) BrowserOption {
	return func(s *BrowserSource) {
		if s.names == nil {
			s.names = make(map[string]bool, len(names))
		}
		for _, n := range names {
			s.names[n] = true
		}
	}
}

// NewBrowserSource creates a new browser cookie source.
func NewBrowserSource(logger *slog.Logger, opts ...BrowserOption) *BrowserSource {
	if logger == nil {
		logger = slog.Default()
	}
	s := &BrowserSource{logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cookies returns cookies for the given domain from browser stores.
func (s *BrowserSource) Cookies(ctx context.Context, domain string) (map[string]string, error) {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return nil, nil //nolint:nilnil // nothing to look up
	}

	s.logger.DebugContext(ctx, "reading browser cookies", "domain", domain)

	// Firefox-family profiles kooky does not auto-detect.
	for _, pattern := range firefoxProfileGlobs() {
		if cookies := s.tryFirefoxGlob(ctx, pattern, domain); len(cookies) > 0 {
			return cookies, nil
		}
	}

	if cookies := s.tryChromeCanary(ctx, domain); len(cookies) > 0 {
		return cookies, nil
	}

	// Fall back to kooky's automatic browser detection
	kookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(domain))
	if err != nil {
		s.logger.Debug("failed to read browser cookies", "domain", domain, "error", err)
		return nil, nil //nolint:nilnil // failed browser read is not a fatal error
	}
	if len(kookies) == 0 {
		return nil, nil //nolint:nilnil // no browser cookies is not an error
	}
	return s.filter(kookies, domain), nil
}

// firefoxProfileGlobs lists cookie databases for Zen and Firefox on macOS and Linux.
func firefoxProfileGlobs() []string {
	home := os.Getenv("HOME")
	if home == "" {
		return nil
	}
	return []string{
		filepath.Join(home, "Library", "Application Support", "zen", "Profiles", "*", "cookies.sqlite"),
		filepath.Join(home, "Library", "Application Support", "Firefox", "Profiles", "*", "cookies.sqlite"),
		filepath.Join(home, ".zen", "*", "cookies.sqlite"),
		filepath.Join(home, ".mozilla", "firefox", "*", "cookies.sqlite"),
	}
}

func (s *BrowserSource) tryFirefoxGlob(ctx context.Context, pattern, domain string) map[string]string {
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return nil
	}

	for _, f := range matches {
		kookies, err := firefox.ReadCookies(ctx, f, kooky.Valid, kooky.DomainHasSuffix(domain))
		if err != nil {
			s.logger.Debug("failed to read Firefox-family cookies",
				"profile", filepath.Base(filepath.Dir(f)),
				"domain", domain,
				"error", err)
			continue
		}
		if len(kookies) > 0 {
			s.logger.Debug("found Firefox-family cookies",
				"profile", filepath.Base(filepath.Dir(f)),
				"domain", domain,
				"count", len(kookies))
			return s.filter(kookies, domain)
		}
	}
	return nil
}

// tryChromeCanary attempts to read cookies from Chrome Canary profiles.
func (s *BrowserSource) tryChromeCanary(ctx context.Context, domain string) map[string]string {
	home := os.Getenv("HOME")
	if home == "" {
		return nil
	}

	canaryDir := filepath.Join(home, "Library", "Application Support", "Google", "Chrome Canary")
	profiles := []string{"Default", "Profile 1", "Profile 2", "Profile 3"}

	for _, profile := range profiles {
		cookiesFile := filepath.Join(canaryDir, profile, "Cookies")
		if _, err := os.Stat(cookiesFile); err != nil {
			continue
		}

		kookies, err := chrome.ReadCookies(ctx, cookiesFile, kooky.Valid, kooky.DomainHasSuffix(domain))
		if err != nil {
			if strings.Contains(err.Error(), "encryption") || strings.Contains(err.Error(), "decrypt") {
				s.logger.Warn("Chrome Canary cookies exist but cannot be decrypted",
					"profile", profile,
					"domain", domain,
					"hint", "try Firefox, or set "+EnvCookie)
			} else {
				s.logger.Debug("failed to read Chrome Canary cookies", "profile", profile, "domain", domain, "error", err)
			}
			continue
		}
		if len(kookies) > 0 {
			s.logger.Debug("found Chrome Canary cookies", "profile", profile, "domain", domain, "count", len(kookies))
			return s.filter(kookies, domain)
		}
	}
	return nil
}

// filter keeps the configured cookie names, or everything when none were configured.
func (s *BrowserSource) filter(kookies []*kooky.Cookie, domain string) map[string]string {
	cookies := make(map[string]string)
	for _, c := range kookies {
		if len(s.names) == 0 || s.names[c.Name] {
			cookies[c.Name] = c.Value
		}
	}

	if len(s.names) > 0 {
		var missing []string
		for name := range s.names {
			if _, ok := cookies[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			s.logger.Info("browser cookies missing", "domain", domain, "keys", missing)
		}
	}
	return cookies
}
