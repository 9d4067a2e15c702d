package htmlutil

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "  Red  ", expected: "Red"},
		{input: "\n\tRed,\n   pink\t", expected: "Red, pink"},
		{input: "7.5 -  8", expected: "7.5 - 8"},
		{input: "7.5 -\u00a0 8", expected: "7.5 - 8"},
		{input: "Mohs\u00a0Hardness", expected: "Mohs Hardness"},
		{input: "", expected: ""},
	}

	for _, row := range table {
		require.Equal(t, row.expected, CleanText(row.input))
	}
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div class="right">
			<a href="amethyst/">  Amethyst </a>
			<a href="https://geology.com/gemstones/ruby/">Ruby<br>
			</a>
			<a href="/gemstones/red-beryl/"><b>Red</b> Beryl</a>
		</div>
	`))
	require.NoError(t, err)

	base, err := url.Parse("https://geology.com/gemstones/")
	require.NoError(t, err)

	anchors := GetAnchors(context.Background(), base, doc.Find("div.right a"))
	require.Equal(t, []Anchor{
		{Name: "Amethyst", Href: "https://geology.com/gemstones/amethyst/"},
		{Name: "Ruby", Href: "https://geology.com/gemstones/ruby/"},
		{Name: "Red Beryl", Href: "https://geology.com/gemstones/red-beryl/"},
	}, anchors)
}
