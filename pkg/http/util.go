package http

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildURL joins a path and query parameters onto a base URL.
func BuildURL(baseURL, path string, queryParams map[string]string) (string, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("error parsing base URL: %w", err)
	}

	parsedURL.Path = path

	q := url.Values{}
	for key, value := range queryParams {
		q.Set(key, value)
	}
	parsedURL.RawQuery = q.Encode()

	return parsedURL.String(), nil
}

// ResolveURL interprets ref relative to base when it isn't absolute.
// A base without a trailing slash keeps its last path segment, matching
// how the Salesforce API root versions its resources.
func ResolveURL(base, ref string) (string, error) {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("error parsing base URL: %w", err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("error parsing URL %q: %w", ref, err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
