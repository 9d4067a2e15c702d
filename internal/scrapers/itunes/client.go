package itunes

import (
	"context"
	"errors"
	"fmt"
	"gemtracks/internal/components/assert"
	"gemtracks/internal/components/telemetry"
	"strconv"
)

const (
	report_client_search = "client.search"
	report_client_enrich = "client.enrich"
)

const (
	DefaultSearchUrl = "https://itunes.apple.com/search"
	DefaultLimit     = 10
)

type Fetcher interface {
	FetchAPI(ctx context.Context, link string, params map[string]string, out any) error
	FetchLiveAPI(ctx context.Context, link string, params map[string]string, out any) error
}

type Options struct {
	SearchUrl string
	Limit     int
	// BypassCache makes every search a live request.
	BypassCache bool
}

type Client struct {
	opts    Options
	fetcher Fetcher
	tel     telemetry.API
}

func NewClient(opts Options, f Fetcher, tel telemetry.API) Client {
	assert.NotNil(f, "fetcher")
	assert.NotNil(tel, "tel")

	if opts.SearchUrl == "" {
		opts.SearchUrl = DefaultSearchUrl
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	return Client{
		opts:    opts,
		fetcher: f,
		tel:     telemetry.NewScopedAPI("itunes_scraper", tel),
	}
}

// Search queries the catalog for term, results are returned in the order
// the API gave them.
func (c Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	params := map[string]string{
		"term":  term,
		"limit": strconv.Itoa(c.opts.Limit),
	}

	var res SearchResponse
	var err error
	if c.opts.BypassCache {
		err = c.fetcher.FetchLiveAPI(ctx, c.opts.SearchUrl, params, &res)
	} else {
		err = c.fetcher.FetchAPI(ctx, c.opts.SearchUrl, params, &res)
	}
	if err != nil {
		c.tel.ReportWarning(report_client_search, err, term)
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	return res.Results, nil
}

// EnrichResult is the outcome of enriching a single gemstone.
type EnrichResult struct {
	Tracks []Track
	// Discarded counts results that were not songs.
	Discarded int
}

// Enrich searches for the gemstone's name and keeps the songs. When the
// search fails or any song cannot be normalized no tracks are returned for
// the gemstone, callers should record the error and carry on.
func (c Client) Enrich(ctx context.Context, gemstone string) (EnrichResult, error) {
	results, err := c.Search(ctx, gemstone)
	if err != nil {
		return EnrichResult{}, err
	}

	var out EnrichResult
	for i, r := range results {
		track, err := r.Normalize(gemstone)
		if errors.Is(err, ErrNotSong) {
			out.Discarded++
			continue
		}
		if err != nil {
			err = fmt.Errorf("enrich %q: result %d: %w", gemstone, i, err)
			c.tel.ReportWarning(report_client_enrich, err)
			return EnrichResult{}, err
		}
		out.Tracks = append(out.Tracks, track)
	}

	c.tel.ReportDebug("enriched gemstone", gemstone, len(out.Tracks), out.Discarded)
	return out, nil
}
