package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/lysyi3m/listing-comb/app/markup"
	"github.com/lysyi3m/listing-comb/app/normalize"
)

const (
	KindText              = "text"
	KindAttr              = "attr"
	KindRegex             = "regex"
	KindCurrency          = "currency"
	KindParam             = "param"
	KindPageTitle         = "page_title"
	KindStructuredAddress = "structured_address"
	KindBreadcrumbs       = "breadcrumbs"
	KindAdminUnits        = "admin_units"
	KindReadability       = "readability"
)

// Page is what locators run against during one extraction.
type Page struct {
	Doc   *markup.Document
	Table *Table
	URL   string
}

// Locator is one named strategy in a Chain. Find returns the first candidate
// text the accept function agrees with.
type Locator struct {
	Name string
	Find func(p *Page, accept func(string) bool) (string, bool)
}

// LocatorSpec declares a locator as data.
type LocatorSpec struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr"`
	Pattern  string `yaml:"pattern"`
	Param    string `yaml:"param"`
}

func (s LocatorSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("locator name is required")
	}

	switch s.Kind {
	case KindText, KindBreadcrumbs:
		if s.Selector == "" {
			return fmt.Errorf("%s locator %q requires a selector", s.Kind, s.Name)
		}
	case KindAttr:
		if s.Selector == "" || s.Attr == "" {
			return fmt.Errorf("attr locator %q requires selector and attr", s.Name)
		}
	case KindRegex:
		if s.Pattern == "" {
			return fmt.Errorf("regex locator %q requires a pattern", s.Name)
		}
	case KindParam:
		if s.Param == "" {
			return fmt.Errorf("param locator %q requires a param", s.Name)
		}
	case KindCurrency, KindPageTitle, KindStructuredAddress, KindAdminUnits, KindReadability:
	default:
		return fmt.Errorf("unknown locator kind %q", s.Kind)
	}

	if s.Selector != "" {
		if _, err := cascadia.Compile(s.Selector); err != nil {
			return fmt.Errorf("invalid selector %q: %w", s.Selector, err)
		}
	}
	if s.Pattern != "" {
		if _, err := regexp.Compile(s.Pattern); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", s.Pattern, err)
		}
	}

	return nil
}

// Build turns a spec into a Locator. Specs are expected to be validated.
func (s LocatorSpec) Build(cfg Config) (Locator, error) {
	if err := s.Validate(); err != nil {
		return Locator{}, err
	}

	switch s.Kind {
	case KindText:
		return TextLocator(s.Name, cascadia.MustCompile(s.Selector)), nil
	case KindAttr:
		return AttrLocator(s.Name, cascadia.MustCompile(s.Selector), s.Attr), nil
	case KindRegex:
		var sel cascadia.Selector
		if s.Selector != "" {
			sel = cascadia.MustCompile(s.Selector)
		}
		return RegexLocator(s.Name, sel, regexp.MustCompile(s.Pattern)), nil
	case KindCurrency:
		return CurrencyLocator(s.Name), nil
	case KindParam:
		return ParamLocator(s.Name, cfg.Synonyms[s.Param]), nil
	case KindPageTitle:
		return PageTitleLocator(s.Name, cfg.TitleSuffixes), nil
	case KindStructuredAddress:
		return StructuredAddressLocator(s.Name), nil
	case KindBreadcrumbs:
		return BreadcrumbLocator(s.Name, cascadia.MustCompile(s.Selector), cfg.BreadcrumbStop), nil
	case KindAdminUnits:
		return AdminUnitLocator(s.Name, cfg.AdminUnits), nil
	case KindReadability:
		return ReadabilityLocator(s.Name), nil
	}

	return Locator{}, fmt.Errorf("unknown locator kind %q", s.Kind)
}

// TextLocator yields the text of the first matching element that is accepted.
func TextLocator(name string, sel cascadia.Selector) Locator {
	return Locator{
		Name: name,
		Find: func(p *Page, accept func(string) bool) (string, bool) {
			return firstAccepted(p.Doc.FindMatcher(sel), accept, func(s *goquery.Selection) string {
				return s.Text()
			})
		},
	}
}

func AttrLocator(name string, sel cascadia.Selector, attr string) Locator {
	return Locator{
		Name: name,
		Find: func(p *Page, accept func(string) bool) (string, bool) {
			return firstAccepted(p.Doc.FindMatcher(sel), accept, func(s *goquery.Selection) string {
				return s.AttrOr(attr, "")
			})
		},
	}
}

// RegexLocator scans the text of matching elements, or the whole page when sel is nil.
// The first capture group is returned when present.
func RegexLocator(name string, sel cascadia.Selector, re *regexp.Regexp) Locator {
	return Locator{
		Name: name,
		Find: func(p *Page, accept func(string) bool) (string, bool) {
			var texts []string
			if sel == nil {
				texts = p.Doc.Lines()
			} else {
				p.Doc.FindMatcher(sel).Each(func(_ int, s *goquery.Selection) {
					texts = append(texts, s.Text())
				})
			}

			for _, text := range texts {
				for _, m := range re.FindAllStringSubmatch(text, -1) {
					candidate := m[0]
					if len(m) > 1 {
						candidate = m[1]
					}
					if usable(candidate, accept) {
						return candidate, true
					}
				}
			}
			return "", false
		},
	}
}

var currencyRegexp = regexp.MustCompile(`(\d{1,3}(?:[ \x{00A0}\x{202F}]\d{3})+|\d+)\s*(?:zł|PLN)`)

// CurrencyLocator scans page text for a digit run next to a currency token,
// skipping per-square-metre prices such as "7 083 zł/m²".
func CurrencyLocator(name string) Locator {
	return Locator{
		Name: name,
		Find: func(p *Page, accept func(string) bool) (string, bool) {
			for _, line := range p.Doc.Lines() {
				for _, idx := range currencyRegexp.FindAllStringSubmatchIndex(line, -1) {
					rest := strings.TrimSpace(line[idx[1]:])
					if strings.HasPrefix(rest, "/") || strings.HasPrefix(strings.ToLower(rest), "za m") {
						continue
					}
					candidate := line[idx[2]:idx[3]]
					if usable(candidate, accept) {
						return candidate, true
					}
				}
			}
			return "", false
		},
	}
}

// ParamLocator looks the value up in the parameter table by label synonyms.
func ParamLocator(name string, syn Synonyms) Locator {
	return Locator{
		Name: name,
		Find: func(p *Page, accept func(string) bool) (string, bool) {
			if p.Table == nil {
				return "", false
			}
			_, value, found := p.Table.Lookup(syn, accept)
			return value, found
		},
	}
}

// PageTitleLocator yields the <title> text with known site suffixes removed.
func PageTitleLocator(name string, suffixes []string) Locator {
	return Locator{
		Name: name,
		Find: func(p *Page, accept func(string) bool) (string, bool) {
			title := normalize.Text(p.Doc.Title())
			lower := strings.ToLower(title)
			for _, suffix := range suffixes {
				if strings.HasSuffix(lower, strings.ToLower(suffix)) {
					title = strings.TrimSpace(title[:len(title)-len(suffix)])
					break
				}
			}
			if usable(title, accept) {
				return title, true
			}
			return "", false
		},
	}
}

func firstAccepted(sel *goquery.Selection, accept func(string) bool, text func(*goquery.Selection) string) (string, bool) {
	var out string
	var found bool
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		candidate := text(s)
		if usable(candidate, accept) {
			out, found = candidate, true
			return false
		}
		return true
	})
	return out, found
}

func usable(candidate string, accept func(string) bool) bool {
	if strings.TrimSpace(candidate) == "" {
		return false
	}
	return accept == nil || accept(candidate)
}
