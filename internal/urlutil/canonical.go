package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// Canonicalize parses a raw endpoint URL and returns its canonical form.
// The canonicalization rules are:
// 1. Scheme and host are lowercased.
// 2. Default ports (80 for http, 443 for https) are stripped.
// 3. The URL fragment (#...) and query are removed.
// 4. A trailing slash is removed, including the root path.
// Returns an error if the URL is not a valid absolute HTTP/HTTPS URL.
func Canonicalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}

	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("url must be an absolute http or https url: %q", rawURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url has no host: %q", rawURL)
	}

	// Rule 1
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Rule 2
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Hostname()
	}

	// Rule 3
	u.Fragment = ""
	u.RawQuery = ""

	// Rule 4: endpoints are base URLs that get tool paths appended.
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return u.String(), nil
}

// Join appends a site-relative path to a canonical base URL.
func Join(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
