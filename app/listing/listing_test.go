package listing

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestField_Absence(t *testing.T) {
	var f Field[int]

	if f.IsSet() {
		t.Error("Zero value should be absent")
	}
	if f.Or(7) != 7 {
		t.Errorf("Expected fallback 7, got %d", f.Or(7))
	}
	if f.String() != "<absent>" {
		t.Errorf("Expected '<absent>', got %q", f.String())
	}

	// A present zero is distinct from absence.
	zero := Some(0)
	if v, ok := zero.Get(); !ok || v != 0 {
		t.Errorf("Expected present 0, got %d (%v)", v, ok)
	}
}

func TestField_FromPtr(t *testing.T) {
	v := 52.5
	if got := FromPtr(&v); !got.IsSet() || got.Or(0) != 52.5 {
		t.Errorf("Expected 52.5, got %v", got)
	}
	if FromPtr[float64](nil).IsSet() {
		t.Error("Expected nil pointer to map to absence")
	}
}

func TestListing_JSON(t *testing.T) {
	l := Listing{
		Title: "Dom 120m2",
		Price: Some(int64(850000)),
		Area:  Some(120.0),
		Rooms: Some(5),
	}

	data, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"plot_area":null`) {
		t.Errorf("Expected absent plot_area to encode as null, got %s", data)
	}
	if !strings.Contains(string(data), `"price":850000`) {
		t.Errorf("Expected price 850000, got %s", data)
	}

	var decoded Listing
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.PlotArea.IsSet() {
		t.Error("Expected plot_area to stay absent")
	}
	if decoded.Rooms.Or(0) != 5 {
		t.Errorf("Expected 5 rooms, got %v", decoded.Rooms)
	}
}

func TestTrace(t *testing.T) {
	var trace Trace
	trace.Add(FieldTrace{Field: "price", Locator: "price-data-attr", Tried: []string{"price-data-attr"}})
	trace.Add(FieldTrace{Field: "rooms", Tried: []string{"rooms-table", "rooms-text-scan"}})

	ft, ok := trace.Field("rooms")
	if !ok {
		t.Fatal("Expected rooms trace")
	}
	if ft.Matched() {
		t.Error("Rooms should not be matched")
	}

	attrs := trace.Attrs()
	want := []any{"price", "price-data-attr", "rooms", "-"}
	if len(attrs) != len(want) {
		t.Fatalf("Expected %d attrs, got %d", len(want), len(attrs))
	}
	for i := range want {
		if attrs[i] != want[i] {
			t.Errorf("Attr %d: expected %v, got %v", i, want[i], attrs[i])
		}
	}
}

func TestIsTargetURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.otodom.pl/pl/oferta/dom-ID4abc", true},
		{"http://otodom.pl/pl/oferta/x", true},
		{"https://otodom.pl.evil.com/x", false},
		{"https://www.olx.pl/oferta", false},
		{"ftp://www.otodom.pl/x", false},
		{"not a url", false},
	}
	for _, tt := range tests {
		if got := IsTargetURL(tt.url); got != tt.want {
			t.Errorf("IsTargetURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
