package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// A number in Polish notation: dot-grouped thousands with a comma fraction,
// space-grouped thousands with an optional fraction, dot-grouped thousands,
// or plain digits with an optional comma or dot fraction.
const numberPattern = `(?:\d{1,3}(?:\.\d{3})+,\d+` +
	`|\d{1,3}(?:[ \x{00A0}\x{202F}]\d{3})+(?:[.,]\d+)?` +
	`|\d{1,3}(?:\.\d{3})+` +
	`|\d+(?:[.,]\d+)?)`

var (
	nonDigitRegexp  = regexp.MustCompile(`\D+`)
	intRegexp       = regexp.MustCompile(`\d+`)
	numberRegexp    = regexp.MustCompile(`(` + numberPattern + `)(?:\D|$)`)
	dotGroupRegexp  = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	areaRegexp      = regexp.MustCompile(`(?i)(` + numberPattern + `)\s*(?:m²|m2|m\^2|mkw|m\b)`)
	bareAreaRegexp  = regexp.MustCompile(`^(` + numberPattern + `)$`)
	separatorRegexp = regexp.MustCompile(`[ \x{00A0}\x{202F}]`)
)

// Int strips every non-digit character and parses what is left.
func Int(s string) (int64, bool) {
	digits := nonDigitRegexp.ReplaceAllString(s, "")
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Price is Int with zero treated as absent ("0 results", "0 zł").
func Price(s string) (int64, bool) {
	v, ok := Int(s)
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}

// FirstInt returns the first run of digits in s.
func FirstInt(s string) (int, bool) {
	m := intRegexp.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Decimal parses the first complete number in s, accepting a decimal comma
// and space or dot thousands separators.
func Decimal(s string) (float64, bool) {
	m := numberRegexp.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0, false
	}
	return parseDecimal(m[1])
}

// Area parses the first number immediately followed by an area unit.
// A value that is nothing but a number is taken as square metres.
func Area(s string) (float64, bool) {
	var v float64
	var ok bool

	if m := areaRegexp.FindStringSubmatch(s); len(m) == 2 {
		v, ok = parseDecimal(m[1])
	} else if n := Text(s); bareAreaRegexp.MatchString(n) {
		v, ok = Decimal(n)
	}

	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

func parseDecimal(raw string) (float64, bool) {
	cleaned := separatorRegexp.ReplaceAllString(raw, "")
	switch {
	case strings.Contains(cleaned, ","):
		// Dots before a decimal comma can only group thousands.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case dotGroupRegexp.MatchString(cleaned):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Text collapses whitespace runs and trims a trailing comma.
func Text(s string) string {
	out := strings.Join(strings.Fields(s), " ")
	out = strings.TrimSuffix(out, ",")
	return strings.TrimSpace(out)
}

// Label prepares parameter labels and synonyms for matching.
func Label(s string) string {
	out := Text(s)
	out = strings.TrimSpace(strings.TrimSuffix(out, ":"))
	return cases.Fold().String(norm.NFC.String(out))
}
