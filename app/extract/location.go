package extract

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/lysyi3m/listing-comb/app/normalize"
)

const (
	jsonLDSelector   = `script[type="application/ld+json"]`
	nextDataSelector = `script#__NEXT_DATA__`

	// Longer lines are prose, not an address line.
	maxAdminUnitLine = 160
)

// Address components in composition order; the first key present in each group wins.
var addressParts = [][]string{
	{"streetAddress", "street"},
	{"addressLocality", "city", "town", "village"},
	{"district", "subdistrict"},
	{"addressRegion", "province", "region"},
}

// StructuredAddressLocator reads an embedded address object from JSON-LD or
// Next.js page data.
func StructuredAddressLocator(name string) Locator {
	return Locator{
		Name: name,
		Find: func(p *Page, accept func(string) bool) (string, bool) {
			scripts := p.Doc.Scripts(jsonLDSelector)
			scripts = append(scripts, p.Doc.Scripts(nextDataSelector)...)

			for _, script := range scripts {
				var data any
				if err := json.Unmarshal([]byte(script), &data); err != nil {
					continue
				}
				address, found := findAddress(data)
				if !found {
					continue
				}
				if candidate := composeAddress(address); usable(candidate, accept) {
					return candidate, true
				}
			}
			return "", false
		},
	}
}

func findAddress(v any) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		if address, found := t["address"]; found {
			switch address.(type) {
			case map[string]any, string:
				return address, true
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if address, found := findAddress(t[k]); found {
				return address, true
			}
		}
	case []any:
		for _, item := range t {
			if address, found := findAddress(item); found {
				return address, true
			}
		}
	}
	return nil, false
}

func composeAddress(address any) string {
	if s, isString := address.(string); isString {
		return normalize.Text(s)
	}

	fields, isMap := address.(map[string]any)
	if !isMap {
		return ""
	}

	var parts []string
	for _, group := range addressParts {
		for _, key := range group {
			if part := addressValue(fields[key]); part != "" {
				parts = append(parts, part)
				break
			}
		}
	}
	return normalize.Text(strings.Join(parts, ", "))
}

func addressValue(v any) string {
	switch t := v.(type) {
	case string:
		return normalize.Text(t)
	case map[string]any:
		name, _ := t["name"].(string)
		if number, isString := t["number"].(string); isString && number != "" {
			name += " " + number
		}
		return normalize.Text(name)
	}
	return ""
}

// BreadcrumbLocator joins breadcrumb entries after dropping navigational ones.
func BreadcrumbLocator(name string, sel cascadia.Selector, stopWords []string) Locator {
	stops := foldAll(stopWords)

	return Locator{
		Name: name,
		Find: func(p *Page, accept func(string) bool) (string, bool) {
			var parts []string
			p.Doc.FindMatcher(sel).Each(func(_ int, s *goquery.Selection) {
				entry := normalize.Text(s.Text())
				if entry == "" || isNavigational(normalize.Label(entry), stops) {
					return
				}
				parts = append(parts, entry)
			})

			candidate := strings.Join(parts, ", ")
			if usable(candidate, accept) {
				return candidate, true
			}
			return "", false
		},
	}
}

func isNavigational(entry string, stops []string) bool {
	for _, stop := range stops {
		if entry == stop || strings.HasPrefix(entry, stop+" ") {
			return true
		}
	}
	return false
}

// AdminUnitLocator returns the first short text line mentioning an
// administrative unit keyword such as "gmina" or "powiat".
func AdminUnitLocator(name string, keywords []string) Locator {
	folded := foldAll(keywords)

	return Locator{
		Name: name,
		Find: func(p *Page, accept func(string) bool) (string, bool) {
			for _, line := range p.Doc.Lines() {
				if utf8.RuneCountInString(line) > maxAdminUnitLine {
					continue
				}
				lower := normalize.Label(line)
				for _, kw := range folded {
					if hasToken(lower, kw) && usable(line, accept) {
						return line, true
					}
				}
			}
			return "", false
		},
	}
}

// hasToken reports whether kw occurs in s at the start of a word.
func hasToken(s, kw string) bool {
	for offset := 0; offset < len(s); {
		idx := strings.Index(s[offset:], kw)
		if idx < 0 {
			return false
		}
		at := offset + idx
		if at == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(s[:at])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		offset = at + len(kw)
	}
	return false
}
