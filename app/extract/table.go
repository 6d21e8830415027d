package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/listing-comb/app/markup"
	"github.com/lysyi3m/listing-comb/app/normalize"
)

// Table is the label/value specification table of a listing page.
// Labels keep the position of their first appearance; values are last-write-wins.
type Table struct {
	labels []string
	values map[string]string
}

func NewTable() *Table {
	return &Table{values: make(map[string]string)}
}

func (t *Table) Set(label, value string) {
	if _, ok := t.values[label]; !ok {
		t.labels = append(t.labels, label)
	}
	t.values[label] = value
}

func (t *Table) Get(label string) (string, bool) {
	v, ok := t.values[label]
	return v, ok
}

func (t *Table) Len() int {
	return len(t.labels)
}

func (t *Table) Map() map[string]string {
	out := make(map[string]string, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Lookup returns the first row, in page order, whose label matches any of the
// include synonyms, none of the exclude synonyms, and whose value is accepted.
func (t *Table) Lookup(syn Synonyms, accept func(string) bool) (label, value string, ok bool) {
	include := foldAll(syn.Include)
	exclude := foldAll(syn.Exclude)

	for _, l := range t.labels {
		folded := normalize.Label(l)
		if !containsAny(folded, include) || containsAny(folded, exclude) {
			continue
		}
		v := t.values[l]
		if accept != nil && !accept(v) {
			continue
		}
		return l, v, true
	}
	return "", "", false
}

// ParseTable pairs the first and last child text of every row matched by any of rowSelectors.
func ParseTable(doc *markup.Document, rowSelectors []string) *Table {
	table := NewTable()
	for _, selector := range rowSelectors {
		doc.Find(selector).Each(func(_ int, row *goquery.Selection) {
			children := row.Children()
			if children.Length() < 2 {
				return
			}
			label := normalize.Text(children.First().Text())
			label = strings.TrimSpace(strings.TrimSuffix(label, ":"))
			value := normalize.Text(children.Last().Text())
			if label == "" {
				return
			}
			table.Set(label, value)
		})
	}
	return table
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := normalize.Label(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
