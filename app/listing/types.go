package listing

import (
	"net/url"
	"strings"
)

const (
	SourceName = "otodom"
	SourceHost = "otodom.pl"
)

// Listing is the normalized record produced from one listing page.
type Listing struct {
	Title         string            `json:"title"`
	Price         Field[int64]      `json:"price"`
	Area          Field[float64]    `json:"area"`
	PlotArea      Field[float64]    `json:"plot_area"`
	Rooms         Field[int]        `json:"rooms"`
	Location      string            `json:"location"`
	Description   string            `json:"description"`
	RawParameters map[string]string `json:"raw_parameters"`
}

// FieldTrace records how one field was resolved.
type FieldTrace struct {
	Field   string   `json:"field"`
	Locator string   `json:"locator,omitempty"` // empty when no locator matched
	Raw     string   `json:"raw,omitempty"`
	Value   string   `json:"value,omitempty"`
	Tried   []string `json:"tried"`
}

func (ft FieldTrace) Matched() bool {
	return ft.Locator != ""
}

type Trace struct {
	Fields []FieldTrace `json:"fields"`
}

func (t *Trace) Add(ft FieldTrace) {
	t.Fields = append(t.Fields, ft)
}

func (t Trace) Field(name string) (FieldTrace, bool) {
	for _, ft := range t.Fields {
		if ft.Field == name {
			return ft, true
		}
	}
	return FieldTrace{}, false
}

// Attrs flattens the trace into slog key/value pairs.
func (t Trace) Attrs() []any {
	attrs := make([]any, 0, len(t.Fields)*2)
	for _, ft := range t.Fields {
		matched := ft.Locator
		if matched == "" {
			matched = "-"
		}
		attrs = append(attrs, ft.Field, matched)
	}
	return attrs
}

// IsTargetURL reports whether raw is an absolute http(s) URL on the tracked site.
func IsTargetURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == SourceHost || strings.HasSuffix(host, "."+SourceHost)
}
