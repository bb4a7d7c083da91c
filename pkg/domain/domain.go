package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedLink is returned when a link or its referring page cannot be parsed as a URL.
var ErrMalformedLink = errors.New("malformed link")

// Normalize resolves raw against the referring page URL and strips the query and fragment.
// The result is the canonical key used for deduplication and scope checks.
func Normalize(referrer, raw string) (string, error) {
	base, err := url.Parse(referrer)
	if err != nil {
		return "", fmt.Errorf("%w: referrer %q: %v", ErrMalformedLink, referrer, err)
	}
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrMalformedLink, raw, err)
	}

	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	resolved.RawQuery = ""
	resolved.ForceQuery = false
	return resolved.String(), nil
}

// InScope reports whether a normalized URL falls under the base URL prefix
func InScope(baseURL, normalized string) bool {
	return strings.HasPrefix(normalized, baseURL)
}

// GetProtocol returns the protocol of a given URL
func GetProtocol(u string) (string, error) {
	parsedUrl, err := url.Parse(u)
	if err != nil {
		return "", errors.New("error parsing URL")
	}
	return parsedUrl.Scheme, nil
}
