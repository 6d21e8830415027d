package extract

import (
	"fmt"

	"github.com/lysyi3m/listing-comb/app/listing"
	"github.com/lysyi3m/listing-comb/app/normalize"
)

// Chain is an ordered list of locators for one field. Earlier locators win.
type Chain struct {
	Field    string
	Locators []Locator
}

type Match struct {
	Locator string
	Text    string
	Tried   []string
}

func BuildChain(field string, specs []LocatorSpec, cfg Config) (Chain, error) {
	chain := Chain{Field: field, Locators: make([]Locator, 0, len(specs))}
	for i, spec := range specs {
		loc, err := spec.Build(cfg)
		if err != nil {
			return Chain{}, fmt.Errorf("chain %s, locator %d: %w", field, i, err)
		}
		chain.Locators = append(chain.Locators, loc)
	}
	return chain, nil
}

// Run tries each locator in order and stops at the first one yielding accepted text.
func (c Chain) Run(p *Page, accept func(string) bool) (Match, bool) {
	m := Match{Tried: make([]string, 0, len(c.Locators))}
	for _, loc := range c.Locators {
		m.Tried = append(m.Tried, loc.Name)
		if text, found := loc.Find(p, accept); found {
			m.Locator = loc.Name
			m.Text = text
			return m, true
		}
	}
	return m, false
}

// Resolve runs the chain with conv as the acceptance test and returns the
// converted value, or absence when no locator produced convertible text.
func Resolve[T any](p *Page, c Chain, conv func(string) (T, bool)) (listing.Field[T], listing.FieldTrace) {
	accept := func(s string) bool {
		_, converted := conv(s)
		return converted
	}

	m, found := c.Run(p, accept)
	trace := listing.FieldTrace{Field: c.Field, Tried: m.Tried}
	if !found {
		return listing.None[T](), trace
	}

	v, _ := conv(m.Text)
	trace.Locator = m.Locator
	trace.Raw = normalize.Text(m.Text)
	trace.Value = fmt.Sprint(v)

	return listing.Some(v), trace
}

// text converts to collapsed text of at least minRunes characters.
func text(minRunes int) func(string) (string, bool) {
	return func(s string) (string, bool) {
		out := normalize.Text(s)
		if out == "" || len([]rune(out)) < minRunes {
			return "", false
		}
		return out, true
	}
}
