package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeBase prepares the upstream site root for string concatenation.
//
//   - Scheme and host are lowercased
//   - Default ports are omitted (:80 for http, :443 for https)
//   - Trailing slashes, query and fragment are removed
//
// The result never ends in "/", so appending a link such as "/result" yields
// exactly one separator.
func NormalizeBase(base url.URL) url.URL {
	normalized := base

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	if host, port := normalized.Hostname(), normalized.Port(); port != "" {
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host
		}
	}

	normalized.Path = strings.TrimRight(normalized.Path, "/")
	normalized.RawPath = ""
	normalized.Fragment = ""
	normalized.RawFragment = ""
	normalized.RawQuery = ""
	normalized.ForceQuery = false

	return normalized
}

// Join appends link to base as text rather than resolving it as a reference,
// so "/x" on "https://site/a" gives "https://site/a/x". A link without a
// leading slash gets one inserted; "x" and "/x" join to the same URL.
func Join(base url.URL, link string) (url.URL, error) {
	raw := base.String()
	if link != "" && !strings.HasPrefix(link, "/") {
		raw += "/"
	}
	raw += link

	joined, err := url.Parse(raw)
	if err != nil {
		return url.URL{}, fmt.Errorf("invalid upstream link %q: %w", link, err)
	}
	return *joined, nil
}
