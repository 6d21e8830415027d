package extract

import (
	"bytes"
	"net/url"

	"github.com/go-shiori/go-readability"

	"github.com/lysyi3m/listing-comb/app/normalize"
)

var defaultPageURL = &url.URL{Scheme: "https", Host: "www.otodom.pl", Path: "/"}

// ReadabilityLocator yields the main article text found by readability.
// It is meant as the last entry of a chain: any failure inside readability
// is reported as no match.
func ReadabilityLocator(name string) Locator {
	return Locator{
		Name: name,
		Find: func(p *Page, accept func(string) bool) (text string, found bool) {
			defer func() {
				if r := recover(); r != nil {
					text, found = "", false
				}
			}()

			pageURL, err := url.Parse(p.URL)
			if err != nil || pageURL.Host == "" {
				pageURL = defaultPageURL
			}

			article, err := readability.FromReader(bytes.NewReader(p.Doc.Raw()), pageURL)
			if err != nil {
				return "", false
			}

			text = normalize.Text(article.TextContent)
			if !usable(text, accept) {
				return "", false
			}
			return text, true
		},
	}
}
