package markup

import (
	"errors"
	"strings"
	"testing"
)

const samplePage = `<html>
<head><title>Mieszkanie 3 pokoje - otodom.pl</title><style>.x{color:red}</style></head>
<body>
<h1>Mieszkanie   3 pokoje</h1>
<div class="price">710 000 zł</div>
<p>Opis <b>mieszkania</b></p>
<script type="application/ld+json">{"address":"Kraków"}</script>
</body>
</html>`

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "   \n\t"} {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Parse(%q): expected ErrEmptyInput, got %v", in, err)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	doc, err := Parse([]byte(`<div><h1>Unclosed <span>title`))
	if err != nil {
		t.Fatalf("Malformed markup should parse: %v", err)
	}
	if got := doc.Find("h1").Text(); got != "Unclosed title" {
		t.Errorf("Expected recovered h1 text, got %q", got)
	}
}

func TestDocument_Queries(t *testing.T) {
	doc, err := Parse([]byte(samplePage))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Title() != "Mieszkanie 3 pokoje - otodom.pl" {
		t.Errorf("Unexpected title %q", doc.Title())
	}
	if doc.Find(".price").Length() != 1 {
		t.Error("Expected one .price element")
	}
	if doc.FindContaining("div", "ZŁ").Length() != 1 {
		t.Error("Expected case-insensitive containment match")
	}

	scripts := doc.Scripts(`script[type="application/ld+json"]`)
	if len(scripts) != 1 || scripts[0] != `{"address":"Kraków"}` {
		t.Errorf("Unexpected scripts %v", scripts)
	}
}

func TestDocument_Text(t *testing.T) {
	doc, err := Parse([]byte(samplePage))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	text := doc.Text()
	for _, hidden := range []string{"color:red", "Kraków", "otodom.pl"} {
		if strings.Contains(text, hidden) {
			t.Errorf("Text should not contain %q", hidden)
		}
	}

	lines := doc.Lines()
	want := []string{"Mieszkanie 3 pokoje", "710 000 zł", "Opis mieszkania"}
	if len(lines) != len(want) {
		t.Fatalf("Expected lines %v, got %v", want, lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}
