package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// StripHTML removes every tag from an entry summary and collapses
// inter-element whitespace to single spaces.
func StripHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapse(raw)
	}

	var parts []string
	for _, root := range doc.Nodes {
		collectText(root, &parts)
	}

	return collapse(strings.Join(parts, " "))
}

func collectText(node *html.Node, parts *[]string) {
	if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
		return
	}
	if node.Type == html.TextNode {
		if text := strings.TrimSpace(node.Data); text != "" {
			*parts = append(*parts, text)
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, parts)
	}
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
