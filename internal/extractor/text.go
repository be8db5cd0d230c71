package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// strippedText returns the visible text under sel. Every text fragment is
// trimmed on its own and the fragments are joined without a separator, so
// "<a> Foo <b>Bar</b></a>" yields "FooBar". Script and style bodies are
// not visible text.
func strippedText(sel *goquery.Selection) string {
	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(strings.TrimSpace(n.Data))
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}
	return sb.String()
}

func cellTexts(sel *goquery.Selection) []string {
	texts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, strippedText(cell))
	})
	return texts
}
