package geology

import (
	"context"
	"errors"
	"fmt"
	"gemtracks/internal/components/telemetry"
	"gemtracks/internal/fetcher"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func fixture(t testing.TB, name string) string {
	contents, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return string(contents)
}

// fakeFetcher serves pages from memory, links mapped to an error fail with it.
type fakeFetcher struct {
	pages  map[string]string
	errors map[string]error
	live   int
	cached int
}

func (f *fakeFetcher) lookup(link string) (string, error) {
	err, ok := f.errors[link]
	if ok {
		return "", err
	}
	page, ok := f.pages[link]
	if !ok {
		return "", fmt.Errorf("get %s: %w: 404 Not Found", link, fetcher.ErrUnexpectedStatus)
	}
	return page, nil
}

func (f *fakeFetcher) FetchPage(_ context.Context, link string) (string, error) {
	f.cached++
	return f.lookup(link)
}

func (f *fakeFetcher) FetchLive(_ context.Context, link string) (string, error) {
	f.live++
	return f.lookup(link)
}

func newTestClient(t testing.TB, f *fakeFetcher) (Client, *telemetry.RecorderAPI) {
	tel := telemetry.NewRecorderAPI()
	client, err := NewClient(DefaultDirectoryUrl, f, tel)
	require.NoError(t, err)
	return client, tel
}

func TestBuildIndex(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		DefaultDirectoryUrl: fixture(t, "directory.html"),
	}}
	client, _ := newTestClient(t, f)

	entries, err := client.BuildIndex(context.Background())
	require.NoError(t, err)

	expected := []IndexEntry{
		{Name: "amethyst", Href: "https://geology.com/gemstones/amethyst-v2/"},
		{Name: "ruby", Href: "https://geology.com/gemstones/ruby/"},
		{Name: "red beryl", Href: "https://geology.com/gemstones/red-beryl/"},
	}
	diff := cmp.Diff(expected, entries)
	require.Empty(t, diff)
	require.Equal(t, 1, f.live)
	require.Equal(t, 0, f.cached)
}

func TestBuildIndexMissingContainer(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		DefaultDirectoryUrl: fixture(t, "malformed.html"),
	}}
	client, tel := newTestClient(t, f)

	_, err := client.BuildIndex(context.Background())
	require.ErrorIs(t, err, ErrIndexContainerNotFound)
	require.Len(t, tel.Find("broken", report_client_build_index), 1)
}

func TestBuildIndexTransportFailure(t *testing.T) {
	transportErr := errors.New("connection refused")
	f := &fakeFetcher{errors: map[string]error{DefaultDirectoryUrl: transportErr}}
	client, _ := newTestClient(t, f)

	_, err := client.BuildIndex(context.Background())
	require.ErrorIs(t, err, transportErr)
}

func TestParsePropertiesLastWriteWins(t *testing.T) {
	props, err := ParseProperties(fixture(t, "amethyst.html"))
	require.NoError(t, err)

	require.Equal(t, "Blue", props[PropertyColor])
	require.Equal(t, "7.5 - 8", props[PropertyHardness])
	require.Equal(t, "Conchoidal fracture, purple color", props[PropertyDiagnostic])
	require.Equal(t, "SiO2", props[PropertyComposition])
	require.Len(t, props, 12)
}

func TestParsePropertiesDuplicateKey(t *testing.T) {
	props, err := ParseProperties(`
		<table class="ref" bgcolor="#ddd">
			<tr><td>Color</td><td>Red</td></tr>
			<tr><td>Color</td><td>Blue</td></tr>
		</table>`)
	require.NoError(t, err)
	require.Equal(t, Properties{"Color": "Blue"}, props)
}

func TestParsePropertiesCaseVariant(t *testing.T) {
	props, err := ParseProperties(fixture(t, "uppercase.html"))
	require.NoError(t, err)
	require.Equal(t, Properties{"Color": "Green", "Mohs Hardness": "8"}, props)
}

func TestParsePropertiesMissingTable(t *testing.T) {
	_, err := ParseProperties(fixture(t, "malformed.html"))
	require.ErrorIs(t, err, ErrPropertyTableNotFound)
}

func TestExtract(t *testing.T) {
	transportErr := errors.New("connection reset by peer")
	f := &fakeFetcher{
		pages: map[string]string{
			"https://geology.com/gemstones/amethyst/": fixture(t, "amethyst.html"),
			"https://geology.com/gemstones/jade/":     fixture(t, "malformed.html"),
		},
		errors: map[string]error{
			"https://geology.com/gemstones/opal/": transportErr,
		},
	}
	client, tel := newTestClient(t, f)
	ctx := context.Background()

	props, err := client.Extract(ctx, "https://geology.com/gemstones/amethyst/")
	require.NoError(t, err)
	require.Equal(t, "Blue", props[PropertyColor])

	_, err = client.Extract(ctx, "https://geology.com/gemstones/jade/")
	require.ErrorIs(t, err, ErrPropertyTableNotFound)
	require.NotErrorIs(t, err, ErrTransport)

	_, err = client.Extract(ctx, "https://geology.com/gemstones/missing/")
	require.ErrorIs(t, err, fetcher.ErrUnexpectedStatus)
	require.NotErrorIs(t, err, ErrTransport)

	_, err = client.Extract(ctx, "https://geology.com/gemstones/opal/")
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, transportErr)

	require.Len(t, tel.Find("warning", report_client_extract), 2)
	require.Len(t, tel.Find("broken", report_client_extract), 1)
}

func TestParsePropertiesNonBreakingSpace(t *testing.T) {
	props, err := ParseProperties(`
		<table class="ref" bgcolor="#ddd">
			<tr><td>Mohs&nbsp;Hardness</td><td>7&nbsp; - 8</td></tr>
		</table>`)
	require.NoError(t, err)
	require.Equal(t, Properties{PropertyHardness: "7 - 8"}, props)
}

func TestNewClientRequiresDirectory(t *testing.T) {
	require.Panics(t, func() {
		NewClient("", &fakeFetcher{}, telemetry.NewRecorderAPI())
	})
}
