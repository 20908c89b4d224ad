package htmlutil

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("seqstats.lib.htmlutil")

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
	// <br> separates words in table headers ("% of the<br>lane")
	if node.Type == html.ElementNode && node.Data == "br" {
		buffer.WriteByte(' ')
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText returns the text of a node with non-printable characters removed
// and runs of whitespace collapsed into a single space.
func CleanText(node *html.Node) string {
	text := GetText(node)
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, text)
	text = removeNonPrintable(text)
	text = strings.Trim(text, " \t\n")
	return innerWhitespace.ReplaceAllString(text, " ")
}

// RowCells returns the cleaned text of every <th> or <td> directly under
// each <tr> in the selection, one slice per row.
func RowCells(ctx context.Context, rows *goquery.Selection) [][]string {
	_, span := tracer.Start(ctx, "RowCells")
	defer span.End()

	var out [][]string
	rows.Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			for _, n := range cell.Nodes {
				cells = append(cells, CleanText(n))
			}
		})
		out = append(out, cells)
	})

	span.AddEvent("rows", trace.WithAttributes(
		attribute.Int("count", len(out)),
	))
	return out
}
