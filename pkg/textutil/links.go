package textutil

import (
	"net/url"
	"regexp"
	"strings"
)

// NormalizeURL produces a comparison key for a link so that
// "https://www.shop.com/" and "http://shop.com" are treated as the same link.
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	u = strings.TrimSuffix(u, "/")
	lower := strings.ToLower(u)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, prefix) {
			u = u[len(prefix):]
			lower = lower[len(prefix):]
			break
		}
	}
	if strings.HasPrefix(lower, "www.") {
		u = u[len("www."):]
	}

	// Host is case-insensitive, the path is not.
	host, path, found := strings.Cut(u, "/")
	host = strings.ToLower(host)
	if !found {
		return host
	}
	return host + "/" + strings.TrimSuffix(path, "/")
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// knownEmailProviders are domains that are definitely email providers, not web hosts.
var knownEmailProviders = map[string]bool{
	"gmail.com": true, "googlemail.com": true,
	"yahoo.com": true, "yahoo.co.uk": true, "ymail.com": true,
	"hotmail.com": true, "outlook.com": true, "live.com": true, "msn.com": true,
	"icloud.com": true, "me.com": true, "mac.com": true,
	"aol.com": true, "protonmail.com": true, "proton.me": true,
	"fastmail.com": true, "hey.com": true, "pm.me": true, "zoho.com": true,
}

// ExtractEmailFromURL extracts an email address from URLs like "http://shop@gmail.com".
// Only known email providers count, so basic-auth URLs are not mistaken for emails.
func ExtractEmailFromURL(urlStr string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(urlStr))
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", false
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(lower, "https://"), "http://")
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		rest = rest[:idx]
	}
	if !emailPattern.MatchString(rest) {
		return "", false
	}
	_, domain, _ := strings.Cut(rest, "@")
	if !knownEmailProviders[domain] {
		return "", false
	}
	return rest, true
}

// IsEmailURL returns true for mailto: links and emails dressed up as http URLs.
func IsEmailURL(urlStr string) bool {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(urlStr)), "mailto:") {
		return true
	}
	_, ok := ExtractEmailFromURL(urlStr)
	return ok
}

// Ordered: more specific hosts first.
var linkPlatforms = []struct {
	platform string
	hosts    []string
}{
	{"linktree", []string{"linktr.ee", "linktree.com"}},
	{"link-in-bio", []string{"beacons.ai", "lnk.bio", "campsite.bio", "bio.link", "hoo.be", "stan.store", "taplink.cc"}},
	{"youtube", []string{"youtube.com", "youtu.be"}},
	{"tiktok", []string{"tiktok.com"}},
	{"twitter", []string{"twitter.com", "x.com"}},
	{"facebook", []string{"facebook.com", "fb.com", "fb.me"}},
	{"instagram", []string{"instagram.com"}},
	{"threads", []string{"threads.net"}},
	{"linkedin", []string{"linkedin.com"}},
	{"pinterest", []string{"pinterest.com", "pin.it"}},
	{"spotify", []string{"spotify.com"}},
	{"twitch", []string{"twitch.tv"}},
	{"substack", []string{"substack.com"}},
	{"whatsapp", []string{"wa.me", "whatsapp.com"}},
	{"telegram", []string{"t.me", "telegram.me"}},
	{"shop", []string{"shopify.com", "myshopify.com", "etsy.com", "amazon.com", "amzn.to"}},
	{"booking", []string{"calendly.com", "cal.com"}},
}

// LinkPlatform classifies an external link by its host: a known platform name,
// "email" for email links, or "website" for anything else.
func LinkPlatform(rawURL string) string {
	if IsEmailURL(rawURL) {
		return "email"
	}
	host := linkHost(rawURL)
	if host == "" {
		return "website"
	}
	for _, lp := range linkPlatforms {
		for _, h := range lp.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return lp.platform
			}
		}
	}
	return "website"
}

func linkHost(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
