package htmlutil

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under node in document order.
func GetText(node *html.Node) string {
	var sb strings.Builder
	getTextRecursive(node, &sb)
	return sb.String()
}

func getTextRecursive(node *html.Node, sb *strings.Builder) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		sb.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, sb)
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// Normalize strips non-printable runes, trims the string and collapses
// runs of whitespace into a single space.
func Normalize(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if unicode.IsSpace(c) {
			sb.WriteRune(' ')
			continue
		}
		if unicode.IsPrint(c) {
			sb.WriteRune(c)
		}
	}
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(sb.String(), " "))
}

// Text is the normalized text of every node in the selection.
func Text(sel *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range sel.Nodes {
		sb.WriteString(GetText(n))
		sb.WriteRune(' ')
	}
	return Normalize(sb.String())
}

type Anchor struct {
	Name string
	Href string
	// Url is Href resolved against the base url, nil if Href could not
	// be parsed.
	Url *url.URL
}

// GetAnchors collects the anchors of a selection, relative hrefs are
// resolved against base when it is non-nil.
func GetAnchors(base *url.URL, sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		anchor := Anchor{
			Name: Normalize(GetText(n)),
			Href: href,
		}
		link, err := url.Parse(href)
		if err == nil {
			if base != nil {
				link = base.ResolveReference(link)
			}
			anchor.Url = link
		}
		anchors = append(anchors, anchor)
	}
	return anchors
}
