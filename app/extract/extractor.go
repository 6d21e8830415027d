package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"

	"github.com/lysyi3m/listing-comb/app/listing"
	"github.com/lysyi3m/listing-comb/app/markup"
	"github.com/lysyi3m/listing-comb/app/normalize"
)

const minLocationRunes = 4

// Extractor turns a parsed listing page into a normalized record.
// It holds no per-call state and is safe for concurrent use.
type Extractor struct {
	cfg      Config
	chains   map[string]Chain
	archived markerSet
	blocked  markerSet
}

func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction config: %w", err)
	}

	chains := make(map[string]Chain, len(Fields))
	for _, field := range Fields {
		chain, err := BuildChain(field, cfg.Chains[field], cfg)
		if err != nil {
			return nil, err
		}
		chains[field] = chain
	}

	return &Extractor{
		cfg:      cfg,
		chains:   chains,
		archived: newMarkerSet(cfg.ArchivedMarkers),
		blocked:  newMarkerSet(cfg.BlockedMarkers),
	}, nil
}

// Extract never fails: fields no locator can resolve are left absent.
func (e *Extractor) Extract(doc *markup.Document, sourceURL string) (listing.Listing, listing.Trace) {
	page := &Page{
		Doc:   doc,
		Table: ParseTable(doc, e.cfg.TableRows),
		URL:   sourceURL,
	}

	var l listing.Listing
	var trace listing.Trace

	title, ft := Resolve(page, e.chains[FieldTitle], text(1))
	trace.Add(ft)
	l.Title = title.Or("")

	l.Price, ft = Resolve(page, e.chains[FieldPrice], normalize.Price)
	trace.Add(ft)

	l.Area, ft = Resolve(page, e.chains[FieldArea], normalize.Area)
	trace.Add(ft)

	l.PlotArea, ft = Resolve(page, e.chains[FieldPlotArea], normalize.Area)
	trace.Add(ft)

	l.Rooms, ft = Resolve(page, e.chains[FieldRooms], normalize.FirstInt)
	trace.Add(ft)

	location, ft := Resolve(page, e.chains[FieldLocation], text(minLocationRunes))
	trace.Add(ft)
	l.Location = location.Or("")

	description, ft := Resolve(page, e.chains[FieldDescription], text(1))
	trace.Add(ft)
	l.Description = description.Or("")

	l.RawParameters = page.Table.Map()
	trace.Add(listing.FieldTrace{
		Field: FieldRawParameters,
		Value: strconv.Itoa(page.Table.Len()),
		Tried: e.cfg.TableRows,
	})

	return l, trace
}

// Archived reports whether the page says the listing was withdrawn.
func (e *Extractor) Archived(doc *markup.Document) bool {
	return e.archived.match(doc)
}

// Blocked reports whether the page is an access-denied or captcha page.
func (e *Extractor) Blocked(doc *markup.Document) bool {
	return e.blocked.match(doc)
}

type markerSet struct {
	texts     []string
	selectors []cascadia.Selector
	regions   string
}

func newMarkerSet(m Markers) markerSet {
	set := markerSet{
		texts:   foldAll(m.Texts),
		regions: strings.Join(m.Regions, ", "),
	}
	for _, sel := range m.Selectors {
		set.selectors = append(set.selectors, cascadia.MustCompile(sel))
	}
	return set
}

func (m markerSet) match(doc *markup.Document) bool {
	for _, sel := range m.selectors {
		if doc.FindMatcher(sel).Length() > 0 {
			return true
		}
	}

	title := normalize.Label(doc.Title())
	for _, t := range m.texts {
		if strings.Contains(title, t) {
			return true
		}
		if m.regions != "" && doc.FindContaining(m.regions, t).Length() > 0 {
			return true
		}
	}
	return false
}
