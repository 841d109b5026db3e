package probe

import (
	"fmt"
	"net/url"
	"strings"
)

// TargetURL turns a site's domain into the URL to probe. A bare host gets
// https://; only http and https are accepted.
func TargetURL(domain string) (string, error) {
	raw := strings.TrimSpace(domain)
	if raw == "" {
		return "", fmt.Errorf("empty domain")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse domain %q: %w", domain, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("domain %q has no host", domain)
	}
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}

func IsHTTPS(target string) bool {
	u, err := url.Parse(target)
	return err == nil && u.Scheme == "https"
}
