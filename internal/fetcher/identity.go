package fetcher

import (
	"net/url"

	"github.com/PuerkitoBio/purell"
)

const normalizeFlags = purell.FlagsSafe |
	purell.FlagSortQuery |
	purell.FlagRemoveFragment

// apiIdentityPrefix keeps decoded API payloads and raw pages from ever
// sharing a cache entry.
const apiIdentityPrefix = "api:"

// PageIdentity is the cache identity of a plain page fetch.
func PageIdentity(link string) (string, error) {
	return purell.NormalizeURLString(link, normalizeFlags)
}

// APIIdentity is the cache identity of a parameterized API fetch. The params
// are merged into the url's query and the query is sorted, so the identity
// does not depend on the order of either.
func APIIdentity(link string, params map[string]string) (string, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	for k, v := range params {
		query.Set(k, v)
	}
	parsed.RawQuery = query.Encode()
	return apiIdentityPrefix + purell.NormalizeURL(parsed, normalizeFlags), nil
}
