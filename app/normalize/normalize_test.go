package normalize

import "testing"

func TestInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"710 000 zł", 710000, true},
		{"850 000 zł", 850000, true},
		{"1 250 000 PLN", 1250000, true},
		{"Zapytaj o cenę", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := Int(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Int(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPrice_ZeroIsAbsent(t *testing.T) {
	if _, ok := Price("0 zł"); ok {
		t.Error("Expected zero price to be absent")
	}
	if v, ok := Price("499 000 zł"); !ok || v != 499000 {
		t.Errorf("Expected 499000, got %d (%v)", v, ok)
	}
}

func TestArea(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"52,5 m²", 52.5, true},
		{"68.4 m2", 68.4, true},
		{"120m²", 120, true},
		{"1 200 m²", 1200, true},
		{"1.250,5 m²", 1250.5, true},
		{"1.250 m²", 1250, true},
		{"1.250m²", 1250, true},
		{"2.000.000 m2", 2000000, true},
		{"1.2505 m²", 1.2505, true},
		{"1.250", 1250, true},
		{"447", 447, true},
		{"Powierzchnia 73,2 m² w bloku", 73.2, true},
		{"brak informacji", 0, false},
		{"m²", 0, false},
		{"0 m²", 0, false},
	}

	for _, tt := range tests {
		got, ok := Area(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Area(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"cena 1 234,56 zł", 1234.56, true},
		{"1.234,56", 1234.56, true},
		{"1.234", 1234, true},
		{"1.234.567,8 zł", 1234567.8, true},
		{"52.5", 52.5, true},
		{"1.2345", 1.2345, true},
		{"3,75%", 3.75, true},
		{"none", 0, false},
	}

	for _, tt := range tests {
		got, ok := Decimal(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Decimal(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFirstInt(t *testing.T) {
	if v, ok := FirstInt("3 pokoje"); !ok || v != 3 {
		t.Errorf("Expected 3, got %d (%v)", v, ok)
	}
	if _, ok := FirstInt("kawalerka"); ok {
		t.Error("Expected no integer")
	}
}

func TestText(t *testing.T) {
	got := Text("  Warszawa,\n\t Mokotów ,  ")
	if got != "Warszawa, Mokotów" {
		t.Errorf("Expected 'Warszawa, Mokotów', got %q", got)
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"Powierzchnia działki:": "powierzchnia działki",
		"  LICZBA   POKOI ":     "liczba pokoi",
		"Cena":                  "cena",
	}
	for in, want := range tests {
		if got := Label(in); got != want {
			t.Errorf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}
