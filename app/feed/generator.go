package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lysyi3m/listing-comb/app/database"
)

// Channel describes the feed itself
type Channel struct {
	Title       string
	Description string
	SelfLink    string
	SiteLink    string
	Generator   string
}

type Generator struct {
	printer *message.Printer
}

func NewGenerator() *Generator {
	return &Generator{printer: message.NewPrinter(language.Polish)}
}

// Run renders price changes as RSS 2.0, newest change first as given
func (g *Generator) Run(ch Channel, changes []database.PriceChange) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", ch.Title, 4)
	g.writeElement(&buf, "link", ch.SiteLink, 4)
	g.writeElement(&buf, "description", ch.Description, 4)

	if ch.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(ch.SelfLink)))
	}

	lastBuildDate := time.Now().UTC()
	if len(changes) > 0 {
		lastBuildDate = changes[0].ChangedAt
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", ch.Generator, 4)
	g.writeElement(&buf, "language", "pl", 4)

	for _, change := range changes {
		g.writeItem(&buf, change)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, change database.PriceChange) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(fmt.Sprintf("%s#%d", change.PropertyID, change.ChangedAt.UnixNano())))
	buf.WriteString("</guid>\n")

	oldPrice := g.formatPrice(change.OldPrice)
	newPrice := g.formatPrice(change.NewPrice)

	title := change.Title
	if title == "" {
		title = change.SourceURL
	}
	g.writeElement(buf, "title", fmt.Sprintf("%s: %s → %s", title, oldPrice, newPrice), 6)
	g.writeElement(buf, "link", change.SourceURL, 6)
	g.writeElement(buf, "description", g.describe(change, oldPrice, newPrice), 6)
	g.writeElement(buf, "pubDate", change.ChangedAt.Format(time.RFC1123Z), 6)

	if change.NewPrice < change.OldPrice {
		g.writeElement(buf, "category", "price-drop", 6)
	} else {
		g.writeElement(buf, "category", "price-rise", 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) describe(change database.PriceChange, oldPrice, newPrice string) string {
	if change.OldPrice == 0 {
		return fmt.Sprintf("Cena zmieniła się z %s na %s", oldPrice, newPrice)
	}
	pct := float64(change.NewPrice-change.OldPrice) / float64(change.OldPrice) * 100
	return g.printer.Sprintf("Cena zmieniła się z %s na %s (%+.1f%%)", oldPrice, newPrice, pct)
}

func (g *Generator) formatPrice(price int64) string {
	return g.printer.Sprintf("%d zł", price)
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
