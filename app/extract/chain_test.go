package extract

import (
	"testing"

	"github.com/andybalholm/cascadia"

	"github.com/lysyi3m/listing-comb/app/markup"
	"github.com/lysyi3m/listing-comb/app/normalize"
)

func newPage(t *testing.T, html string) *Page {
	t.Helper()
	doc, err := markup.Parse([]byte(html))
	if err != nil {
		t.Fatalf("Failed to parse fixture: %v", err)
	}
	return &Page{Doc: doc, Table: ParseTable(doc, defaultTableRows), URL: "https://www.otodom.pl/pl/oferta/test"}
}

func roomsChain() Chain {
	return Chain{
		Field: FieldRooms,
		Locators: []Locator{
			TextLocator("rooms-badge", cascadia.MustCompile(".rooms-badge")),
			TextLocator("summary", cascadia.MustCompile(".summary")),
		},
	}
}

func TestResolve_SecondLocatorMatches(t *testing.T) {
	page := newPage(t, `<div class="summary">3 pokoje</div>`)

	rooms, trace := Resolve(page, roomsChain(), normalize.FirstInt)

	if v, ok := rooms.Get(); !ok || v != 3 {
		t.Fatalf("Expected rooms=3, got %v", rooms)
	}
	if trace.Locator != "summary" {
		t.Errorf("Expected locator 'summary', got %q", trace.Locator)
	}
	if len(trace.Tried) != 2 || trace.Tried[0] != "rooms-badge" {
		t.Errorf("Expected both locators tried in order, got %v", trace.Tried)
	}
}

func TestResolve_NoLocatorMatches(t *testing.T) {
	page := newPage(t, `<div class="other">nothing here</div>`)

	rooms, trace := Resolve(page, roomsChain(), normalize.FirstInt)

	if rooms.IsSet() {
		t.Errorf("Expected rooms to be absent, got %v", rooms)
	}
	if trace.Matched() {
		t.Errorf("Expected no matched locator, got %q", trace.Locator)
	}
	if len(trace.Tried) != 2 {
		t.Errorf("Expected 2 tried locators, got %v", trace.Tried)
	}
}

func TestResolve_FirstLocatorWins(t *testing.T) {
	page := newPage(t, `<span class="rooms-badge">4</span><div class="summary">3 pokoje</div>`)

	rooms, trace := Resolve(page, roomsChain(), normalize.FirstInt)

	if rooms.Or(0) != 4 {
		t.Errorf("Expected rooms=4 from first locator, got %v", rooms)
	}
	if trace.Locator != "rooms-badge" {
		t.Errorf("Expected locator 'rooms-badge', got %q", trace.Locator)
	}
}

func TestResolve_UnconvertibleTextFallsThrough(t *testing.T) {
	chain := Chain{
		Field: FieldPrice,
		Locators: []Locator{
			TextLocator("header", cascadia.MustCompile(".header-price")),
			TextLocator("sidebar", cascadia.MustCompile(".sidebar-price")),
		},
	}
	page := newPage(t, `<div class="header-price">Zapytaj o cenę</div><div class="sidebar-price">710 000 zł</div>`)

	price, trace := Resolve(page, chain, normalize.Price)

	if price.Or(0) != 710000 {
		t.Errorf("Expected 710000, got %v", price)
	}
	if trace.Locator != "sidebar" {
		t.Errorf("Expected 'sidebar', got %q", trace.Locator)
	}
	if trace.Raw != "710 000 zł" {
		t.Errorf("Expected raw '710 000 zł', got %q", trace.Raw)
	}
}

func TestBuildChain_InvalidSpec(t *testing.T) {
	_, err := BuildChain(FieldTitle, []LocatorSpec{{Name: "broken", Kind: KindText, Selector: "div[["}}, DefaultConfig())
	if err == nil {
		t.Fatal("Expected error for invalid selector")
	}
}

func TestCurrencyLocator_SkipsPricePerMetre(t *testing.T) {
	page := newPage(t, `<p>Cena za metr 7 083 zł/m²</p><p>Łącznie 499 000 zł</p>`)
	chain := Chain{Field: FieldPrice, Locators: []Locator{CurrencyLocator("scan")}}

	price, _ := Resolve(page, chain, normalize.Price)
	if price.Or(0) != 499000 {
		t.Errorf("Expected 499000, got %v", price)
	}
}

func TestRegexLocator_ScansPageText(t *testing.T) {
	page := newPage(t, `<p>Przestronne mieszkanie, 3 pokoje, balkon</p>`)
	loc, err := LocatorSpec{Name: "scan", Kind: KindRegex, Pattern: `(?i)\b(\d{1,2})\s*pokoje`}.Build(DefaultConfig())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	got, found := loc.Find(page, nil)
	if !found || got != "3" {
		t.Errorf("Expected '3', got %q (%v)", got, found)
	}
}

func TestPageTitleLocator_StripsSuffix(t *testing.T) {
	page := newPage(t, `<html><head><title>Kawalerka przy metrze - otodom.pl</title></head><body></body></html>`)
	loc := PageTitleLocator("page-title", defaultTitleSuffixes)

	got, found := loc.Find(page, nil)
	if !found || got != "Kawalerka przy metrze" {
		t.Errorf("Expected 'Kawalerka przy metrze', got %q (%v)", got, found)
	}
}
