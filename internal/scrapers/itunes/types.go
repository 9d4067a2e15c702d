package itunes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const KindSong = "song"

var (
	ErrNotSong            = errors.New("result is not a song")
	ErrMissingField       = errors.New("missing field")
	ErrInvalidReleaseDate = errors.New("invalid release date")
)

// SearchResult is one entry of the search API's `results` list, every field
// is optional.
type SearchResult struct {
	Kind             *string `json:"kind"`
	TrackName        *string `json:"trackName"`
	ArtistName       *string `json:"artistName"`
	ReleaseDate      *string `json:"releaseDate"`
	PrimaryGenreName *string `json:"primaryGenreName"`
}

type SearchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []SearchResult `json:"results"`
}

// Track is a song found by searching for a gemstone's name.
type Track struct {
	Title  string
	Artist string
	Year   int
	Genre  string
	// Gemstone is the search term that produced this track.
	Gemstone string
}

// IsSong reports whether the result is tagged with the song kind, results
// without a kind are not songs.
func (r SearchResult) IsSong() bool {
	return r.Kind != nil && *r.Kind == KindSong
}

// ParseYear returns the leading hyphen-delimited segment of a release date,
// "1991-07-02T07:00:00Z" is 1991.
func ParseYear(releaseDate string) (int, error) {
	segment, _, _ := strings.Cut(strings.TrimSpace(releaseDate), "-")
	if len(segment) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidReleaseDate, releaseDate)
	}
	for _, c := range segment {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidReleaseDate, releaseDate)
		}
	}
	year, err := strconv.Atoi(segment)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidReleaseDate, releaseDate)
	}
	return year, nil
}

func required(name string, value *string) (string, error) {
	if value == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	return *value, nil
}

// Normalize converts a song result into a Track owned by gemstone.
func (r SearchResult) Normalize(gemstone string) (Track, error) {
	if !r.IsSong() {
		return Track{}, ErrNotSong
	}
	title, err := required("trackName", r.TrackName)
	if err != nil {
		return Track{}, err
	}
	artist, err := required("artistName", r.ArtistName)
	if err != nil {
		return Track{}, err
	}
	releaseDate, err := required("releaseDate", r.ReleaseDate)
	if err != nil {
		return Track{}, err
	}
	genre, err := required("primaryGenreName", r.PrimaryGenreName)
	if err != nil {
		return Track{}, err
	}
	year, err := ParseYear(releaseDate)
	if err != nil {
		return Track{}, err
	}

	return Track{
		Title:    title,
		Artist:   artist,
		Year:     year,
		Genre:    genre,
		Gemstone: gemstone,
	}, nil
}
