package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText flattens a selection to printable, whitespace-collapsed text.
// Ballotpedia cells are full of non-breaking spaces and footnote cruft.
func CleanText(sel *goquery.Selection) string {
	text := sel.Text()
	var printable strings.Builder
	for _, c := range text {
		if c == ' ' {
			printable.WriteRune(' ')
			continue
		}
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			printable.WriteRune(c)
		}
	}
	out := strings.TrimSpace(printable.String())
	return innerWhitespace.ReplaceAllString(out, " ")
}

// CellTexts returns the cleaned text of every td/th cell in a table row.
func CellTexts(row *goquery.Selection) []string {
	var cells []string
	row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, CleanText(cell))
	})
	return cells
}
