package openrouter

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://openrouter.ai"

var defaultAllowedHosts = map[string]struct{}{
	"openrouter.ai":     {},
	"api.openrouter.ai": {},
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// ValidateBaseURL accepts https URLs whose host is allowed. Plain http is
// only accepted for an explicitly allowed loopback host, such as a local
// OpenAI-compatible proxy.
func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	baseURL = normalizeBaseURL(baseURL)

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid OPENROUTER_BASE_URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid OPENROUTER_BASE_URL %q: absolute URL with host is required", baseURL)
	}
	if u.User != nil {
		return fmt.Errorf("invalid OPENROUTER_BASE_URL %q: userinfo is not allowed", baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid OPENROUTER_BASE_URL %q: query and fragment are not allowed", baseURL)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid OPENROUTER_BASE_URL %q: host is required", baseURL)
	}
	allowed, explicit := normalizeAllowedHosts(allowedHosts)
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid OPENROUTER_BASE_URL %q: host %q is not in OPENROUTER_ALLOWED_HOSTS", baseURL, host)
	}

	switch strings.ToLower(u.Scheme) {
	case "https":
	case "http":
		if !explicit || !isLoopback(host) {
			return fmt.Errorf("invalid OPENROUTER_BASE_URL %q: https is required", baseURL)
		}
	default:
		return fmt.Errorf("invalid OPENROUTER_BASE_URL %q: https is required", baseURL)
	}
	return nil
}

// normalizeAllowedHosts reports whether the hosts came from configuration
// rather than the defaults.
func normalizeAllowedHosts(allowedHosts []string) (map[string]struct{}, bool) {
	out := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if host, _, err := net.SplitHostPort(v); err == nil {
			v = host
		}
		out[strings.Trim(v, "[]")] = struct{}{}
	}
	if len(out) == 0 {
		return defaultAllowedHosts, false
	}
	return out, true
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
