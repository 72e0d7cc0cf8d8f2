package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize standardizes a URL into its canonical form and returns the
// lowercased host. The canonical form is the uniqueness key for dedup and
// storage: scheme and host are lowercased, default ports and the fragment
// are stripped, query parameters are sorted, an empty path becomes the root
// slash, and a trailing slash is removed unless the path is the root. Only
// absolute http/https URLs are accepted.
func Normalize(rawURL string) (canonical string, host string, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return "", "", fmt.Errorf("url %q is not an absolute http(s) url", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Hostname()
	}

	u.Fragment = ""

	// Re-encoding sorts query parameters, so two orderings of the same
	// query collapse to one canonical URL.
	u.RawQuery = u.Query().Encode()

	// An absent path and the root slash are the same page.
	if u.Path == "" {
		u.Path = "/"
	}
	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), u.Hostname(), nil
}
