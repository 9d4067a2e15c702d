package geology

import (
	"context"
	"errors"
	"fmt"
	"gemtracks/internal/components/assert"
	"gemtracks/internal/components/telemetry"
	"gemtracks/internal/fetcher"
	"gemtracks/lib/htmlutil"
	"gemtracks/lib/textutil"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_client_build_index = "client.build-index"
	report_client_extract     = "client.extract"
)

const DefaultDirectoryUrl = "https://geology.com/gemstones/"

var (
	// ErrIndexContainerNotFound means the directory page changed structure.
	ErrIndexContainerNotFound = errors.New("gemstone list container not found")
	// ErrPropertyTableNotFound means a detail page has no recognizable property table.
	ErrPropertyTableNotFound = errors.New("property table not found")
	// ErrTransport wraps network failures while fetching a detail page, unlike
	// markup problems these should abort the run.
	ErrTransport = errors.New("transport failure")
)

// propertyTableSelectors are tried in order, the site is inconsistent
// about the case of the table's background color.
var propertyTableSelectors = []string{
	`table.ref[bgcolor="#ddd"]`,
	`table.ref[bgcolor="#DDD"]`,
}

type Fetcher interface {
	FetchPage(ctx context.Context, link string) (string, error)
	FetchLive(ctx context.Context, link string) (string, error)
}

type Client struct {
	directoryUrl *url.URL
	fetcher      Fetcher
	tel          telemetry.API
}

func NewClient(directoryUrl string, f Fetcher, tel telemetry.API) (Client, error) {
	assert.NotNil(f, "fetcher")
	assert.NotNil(tel, "tel")
	assert.NotEmptyStr(directoryUrl, "directoryUrl")

	parsed, err := url.Parse(directoryUrl)
	if err != nil {
		return Client{}, err
	}
	return Client{
		directoryUrl: parsed,
		fetcher:      f,
		tel:          telemetry.NewScopedAPI("geology_scraper", tel),
	}, nil
}

// BuildIndex fetches the directory page (never from the cache) and lists
// every gemstone in document order. When a name appears more than once the
// first position is kept and the last href wins.
func (c Client) BuildIndex(ctx context.Context) ([]IndexEntry, error) {
	body, err := c.fetcher.FetchLive(ctx, c.directoryUrl.String())
	if err != nil {
		c.tel.ReportBroken(report_client_build_index, fmt.Errorf("fetch: %w", err))
		return nil, fmt.Errorf("build index: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		c.tel.ReportBroken(report_client_build_index, fmt.Errorf("parse: %w", err))
		return nil, fmt.Errorf("build index: %w", err)
	}

	container := doc.Find("div.right").First()
	if container.Length() == 0 {
		c.tel.ReportBroken(report_client_build_index, ErrIndexContainerNotFound, c.directoryUrl.String())
		return nil, fmt.Errorf("build index: %w", ErrIndexContainerNotFound)
	}

	anchors := htmlutil.GetAnchors(ctx, c.directoryUrl, container.Find("a[href]"))

	var entries []IndexEntry
	positions := map[string]int{}
	for _, a := range anchors {
		name := textutil.NormalizeName(a.Name)
		if name == "" {
			c.tel.ReportDebug("skipped anchor without text", a.Href)
			continue
		}
		idx, seen := positions[name]
		if seen {
			entries[idx].Href = a.Href
			continue
		}
		positions[name] = len(entries)
		entries = append(entries, IndexEntry{Name: name, Href: a.Href})
	}

	c.tel.ReportCount(report_client_build_index, int64(len(entries)))
	return entries, nil
}

// Extract fetches a detail page through the cache and parses its property
// table. Errors wrapping ErrTransport are network failures, every other
// error means there is no data for this gemstone.
func (c Client) Extract(ctx context.Context, link string) (Properties, error) {
	body, err := c.fetcher.FetchPage(ctx, link)
	if errors.Is(err, fetcher.ErrUnexpectedStatus) || errors.Is(err, fetcher.ErrCorruptEntry) {
		c.tel.ReportWarning(report_client_extract, err, link)
		return nil, fmt.Errorf("extract %s: %w", link, err)
	}
	if err != nil {
		c.tel.ReportBroken(report_client_extract, fmt.Errorf("fetch: %w", err), link)
		return nil, fmt.Errorf("extract %s: %w: %w", link, ErrTransport, err)
	}

	props, err := ParseProperties(body)
	if err != nil {
		c.tel.ReportWarning(report_client_extract, err, link)
		return nil, fmt.Errorf("extract %s: %w", link, err)
	}
	return props, nil
}

// ParseProperties reads the two column property table of a detail page.
// Rows with less than two cells are ignored and later rows overwrite
// earlier rows with the same label.
func ParseProperties(body string) (Properties, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var table *goquery.Selection
	for _, selector := range propertyTableSelectors {
		table = doc.Find(selector).First()
		if table.Length() > 0 {
			break
		}
	}
	if table.Length() == 0 {
		return nil, ErrPropertyTableNotFound
	}

	props := Properties{}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		key := htmlutil.SelectionText(cells.Eq(0))
		value := htmlutil.SelectionText(cells.Eq(1))
		props[key] = value
	})
	return props, nil
}
