package util

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseSourceURL parses a blocklist source URL. Bare hosts get an https://
// scheme; only http and https are accepted.
func ParseSourceURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if !strings.Contains(raw, "://") && (err != nil || u.Scheme == "" || u.Host == "") {
		u, err = url.Parse("https://" + raw)
	}
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q", raw)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u, nil
	default:
		return nil, fmt.Errorf("unsupported URL %q: only http and https sources are supported", raw)
	}
}

// NormalizeBaseURL parses a host API address, defaulting to http for bare
// host:port values, and trims trailing slashes so paths can be appended.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := ParseSourceURL(raw)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
