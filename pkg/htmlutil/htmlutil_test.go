package htmlutil

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t testing.TB, contents string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contents))
	require.NoError(t, err)
	return doc
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "Koulun kevätjuhla", Normalize("\n\t Koulun  \n kevätjuhla  \x00"))
	require.Equal(t, "", Normalize(" \n "))
}

func TestText(t *testing.T) {
	doc := parse(t, `<table><tr><td> <a href="#">Retki</a>
		<span>huomenna</span> </td></tr></table>`)
	require.Equal(t, "Retki huomenna", Text(doc.Find("td")))
}

func TestGetAnchors(t *testing.T) {
	doc := parse(t, `<div>
		<a href="/messages/123"> Uusi
			viesti </a>
		<a href="https://other.example/x">Other</a>
		<a>Empty</a>
	</div>`)
	base, err := url.Parse("https://school.inschool.fi/!0123/")
	require.NoError(t, err)

	anchors := GetAnchors(base, doc.Find("a"))
	require.Len(t, anchors, 3)

	require.Equal(t, "Uusi viesti", anchors[0].Name)
	require.Equal(t, "/messages/123", anchors[0].Href)
	require.Equal(t, "https://school.inschool.fi/messages/123", anchors[0].Url.String())

	require.Equal(t, "https://other.example/x", anchors[1].Url.String())

	require.Equal(t, "Empty", anchors[2].Name)
	require.Equal(t, "", anchors[2].Href)
}
