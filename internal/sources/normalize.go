package sources

import (
	"net/url"
	"strings"
)

// NormalizeMediaURL reduces a media URL to a comparable key: lowercase scheme and
// host, no query, no fragment, no trailing slash. Input that does not parse as an
// absolute URL yields "" and is never deduplicated.
func NormalizeMediaURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}
