package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// strippedText concatenates the selection's text nodes with each node trimmed, so
// "<a> Karten <span> ab 10 EUR</span></a>" reads "Kartenab 10 EUR". Labels on the
// shop are split across spans and this keeps them comparable to the phrase lists.
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		collectText(&b, n)
	}
	return b.String()
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(strings.TrimSpace(n.Data))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}
