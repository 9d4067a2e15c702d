package itunes

import (
	"context"
	"encoding/json"
	"errors"
	"gemtracks/internal/components/telemetry"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type call struct {
	link   string
	params map[string]string
	live   bool
}

// fakeFetcher answers every search with the document registered for its term.
type fakeFetcher struct {
	documents map[string]string
	err       error
	calls     []call
}

func (f *fakeFetcher) answer(link string, params map[string]string, out any, live bool) error {
	f.calls = append(f.calls, call{link: link, params: params, live: live})
	if f.err != nil {
		return f.err
	}
	doc, ok := f.documents[params["term"]]
	if !ok {
		doc = `{"resultCount":0,"results":[]}`
	}
	return json.Unmarshal([]byte(doc), out)
}

func (f *fakeFetcher) FetchAPI(_ context.Context, link string, params map[string]string, out any) error {
	return f.answer(link, params, out, false)
}

func (f *fakeFetcher) FetchLiveAPI(_ context.Context, link string, params map[string]string, out any) error {
	return f.answer(link, params, out, true)
}

func fixture(t testing.TB, name string) string {
	contents, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return string(contents)
}

func TestEnrich(t *testing.T) {
	f := &fakeFetcher{documents: map[string]string{
		"amethyst": fixture(t, "amethyst.json"),
	}}
	client := NewClient(Options{}, f, telemetry.NewRecorderAPI())

	res, err := client.Enrich(context.Background(), "amethyst")
	require.NoError(t, err)

	expected := []Track{
		{Title: "Amethyst", Artist: "Ashnikko", Year: 2021, Genre: "Alternative", Gemstone: "amethyst"},
		{Title: "Amethyst Dreams", Artist: "Tinashe", Year: 2015, Genre: "R&B/Soul", Gemstone: "amethyst"},
	}
	diff := cmp.Diff(expected, res.Tracks)
	require.Empty(t, diff)
	require.Equal(t, 3, res.Discarded)

	require.Len(t, f.calls, 1)
	require.Equal(t, DefaultSearchUrl, f.calls[0].link)
	require.Equal(t, map[string]string{"term": "amethyst", "limit": "10"}, f.calls[0].params)
	require.False(t, f.calls[0].live)
}

func TestEnrichCategoryFilter(t *testing.T) {
	f := &fakeFetcher{documents: map[string]string{
		"ruby": `{"results": [
			{"kind": "song", "trackName": "Ruby", "artistName": "Kaiser Chiefs", "releaseDate": "2007-01-01T08:00:00Z", "primaryGenreName": "Alternative"},
			{"kind": "movie", "trackName": "Ruby", "artistName": "Someone", "releaseDate": "1977-01-01T08:00:00Z", "primaryGenreName": "Horror"},
			{"trackName": "Ruby", "artistName": "Nobody", "releaseDate": "1999-01-01T08:00:00Z", "primaryGenreName": "Pop"}
		]}`,
	}}
	client := NewClient(Options{}, f, telemetry.NewRecorderAPI())

	res, err := client.Enrich(context.Background(), "ruby")
	require.NoError(t, err)
	require.Len(t, res.Tracks, 1)
	require.Equal(t, "Kaiser Chiefs", res.Tracks[0].Artist)
	require.Equal(t, 2007, res.Tracks[0].Year)
	require.Equal(t, 2, res.Discarded)
}

func TestEnrichSearchFailure(t *testing.T) {
	searchErr := errors.New("connection refused")
	f := &fakeFetcher{err: searchErr}
	tel := telemetry.NewRecorderAPI()
	client := NewClient(Options{}, f, tel)

	res, err := client.Enrich(context.Background(), "opal")
	require.ErrorIs(t, err, searchErr)
	require.Empty(t, res.Tracks)
	require.Len(t, tel.Find("warning", report_client_search), 1)
}

func TestEnrichInvalidSongDropsGemstone(t *testing.T) {
	f := &fakeFetcher{documents: map[string]string{
		"topaz": `{"results": [
			{"kind": "song", "trackName": "Topaz", "artistName": "A", "releaseDate": "2001-01-01", "primaryGenreName": "Jazz"},
			{"kind": "song", "trackName": "Topaz II", "artistName": "B", "primaryGenreName": "Jazz"}
		]}`,
	}}
	tel := telemetry.NewRecorderAPI()
	client := NewClient(Options{}, f, tel)

	res, err := client.Enrich(context.Background(), "topaz")
	require.ErrorIs(t, err, ErrMissingField)
	require.Empty(t, res.Tracks)
	require.Len(t, tel.Find("warning", report_client_enrich), 1)
}

func TestEnrichBypassCache(t *testing.T) {
	f := &fakeFetcher{}
	client := NewClient(Options{BypassCache: true, Limit: 5, SearchUrl: "http://localhost/search"}, f, telemetry.NewRecorderAPI())

	res, err := client.Enrich(context.Background(), "jade")
	require.NoError(t, err)
	require.Empty(t, res.Tracks)

	require.Len(t, f.calls, 1)
	require.True(t, f.calls[0].live)
	require.Equal(t, "http://localhost/search", f.calls[0].link)
	require.Equal(t, "5", f.calls[0].params["limit"])
}
