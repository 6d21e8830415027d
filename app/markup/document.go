package markup

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var ErrEmptyInput = errors.New("markup is empty")

// Document is a queryable view over one fetched page.
type Document struct {
	raw []byte
	doc *goquery.Document
}

// Parse builds a Document. Malformed markup is accepted; only empty input fails.
func Parse(raw []byte) (*Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyInput
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}

	return &Document{raw: raw, doc: doc}, nil
}

func (d *Document) Raw() []byte {
	return d.raw
}

// Find returns elements matching a CSS selector. Invalid selectors match nothing.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

func (d *Document) FindMatcher(m goquery.Matcher) *goquery.Selection {
	return d.doc.FindMatcher(m)
}

// FindContaining returns elements matching selector whose text contains substr,
// ignoring case and whitespace differences.
func (d *Document) FindContaining(selector, substr string) *goquery.Selection {
	needle := collapse(strings.ToLower(substr))
	return d.doc.Find(selector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(collapse(strings.ToLower(s.Text())), needle)
	})
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Title returns the text of the page <title>.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("head title").First().Text())
}

// Text returns the visible page text with block elements on their own lines.
func (d *Document) Text() string {
	var b strings.Builder
	for _, n := range d.doc.Nodes {
		writeText(&b, n)
	}
	return b.String()
}

// Lines returns the non-empty lines of Text with whitespace collapsed.
func (d *Document) Lines() []string {
	var lines []string
	for _, line := range strings.Split(d.Text(), "\n") {
		line = collapse(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Scripts returns the bodies of <script> elements matching selector.
func (d *Document) Scripts(selector string) []string {
	var out []string
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if body := strings.TrimSpace(s.Text()); body != "" {
			out = append(out, body)
		}
	})
	return out
}

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}
