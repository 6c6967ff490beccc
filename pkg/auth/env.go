package auth

import (
	"context"
	"net/http"
	"os"
	"strings"
)

// Environment variables holding credentials for the snapshot host.
const (
	EnvToken  = "LEADSCOPE_SOURCE_TOKEN"  // bearer token
	EnvCookie = "LEADSCOPE_SOURCE_COOKIE" // "name=value; name2=value2", as copied from a Cookie header
)

// Token returns the bearer token from the environment, or "".
func Token() string {
	return strings.TrimSpace(os.Getenv(EnvToken))
}

// EnvSource reads cookies from LEADSCOPE_SOURCE_COOKIE. The same cookies are
// offered for every domain; the jar scopes them to the host being fetched.
type EnvSource struct{}

// Cookies parses the cookie header held in the environment.
func (EnvSource) Cookies(_ context.Context, _ string) (map[string]string, error) {
	raw := strings.TrimSpace(os.Getenv(EnvCookie))
	if raw == "" {
		return nil, nil //nolint:nilnil // no env var set is not an error
	}

	parsed, err := http.ParseCookie(raw)
	if err != nil {
		return nil, err
	}
	cookies := make(map[string]string, len(parsed))
	for _, c := range parsed {
		if c.Value != "" {
			cookies[c.Name] = c.Value
		}
	}
	if len(cookies) == 0 {
		return nil, nil //nolint:nilnil // only empty values is the same as unset
	}
	return cookies, nil
}

// EnvVars returns the environment variable names read by this package.
// This is useful for generating help messages.
func EnvVars() []string {
	return []string{EnvToken, EnvCookie}
}
