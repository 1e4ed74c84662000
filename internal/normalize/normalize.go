// Package normalize turns raw scraped fields into comparison-safe keys.
// Nothing here returns an error: malformed input yields the empty value.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"bookhub/pkg/models"
)

// MaxISBNLen caps a normalized ISBN; longer digit runs are truncated.
const MaxISBNLen = 20

// Origin tells which listing field an ISBN came from.
type Origin string

const (
	OriginNone  Origin = "none"
	OriginClean Origin = "clean"
	OriginRaw   Origin = "raw"
)

var (
	parenRegex = regexp.MustCompile(`\([^)]*\)`)
	yearRegex  = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// ISBN returns the digits-only ISBN of a listing. An already cleaned
// isbn_clean wins over the raw isbn field.
func ISBN(l models.Listing) string {
	isbn, _ := ISBNWithOrigin(l)
	return isbn
}

// ISBNOrigin reports which field ISBN read from. When neither field
// yields digits it names the first non-blank field.
func ISBNOrigin(l models.Listing) Origin {
	_, origin := ISBNWithOrigin(l)
	return origin
}

// ISBNWithOrigin prefers isbn_clean, but a clean value without digits
// ("нет", "-") falls through to the raw isbn field.
func ISBNWithOrigin(l models.Listing) (string, Origin) {
	clean, raw := l.ISBNClean.String(), l.ISBN.String()
	if d := digits(clean); d != "" {
		return d, OriginClean
	}
	if d := digits(raw); d != "" {
		return d, OriginRaw
	}
	switch {
	case clean != "":
		return "", OriginClean
	case raw != "":
		return "", OriginRaw
	}
	return "", OriginNone
}

func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == MaxISBNLen {
				break
			}
		}
	}
	return b.String()
}

// Text lower-cases s, drops parenthesized segments, turns punctuation
// into spaces and collapses whitespace. Text(Text(s)) == Text(s).
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = parenRegex.ReplaceAllString(s, " ")

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// TitleKey is Text with every space removed. The candidate pre-filter
// matches on it so "Гарри Поттер" finds "ГарриПоттер".
func TitleKey(s string) string {
	return strings.ReplaceAll(Text(s), " ", "")
}

// AuthorKey is Text without single-letter tokens, so "Толстой Л.Н."
// compares as "толстой". When only initials remain it falls back to Text.
func AuthorKey(s string) string {
	t := Text(s)
	tokens := strings.Fields(t)
	kept := tokens[:0]
	for _, tok := range tokens {
		if len([]rune(tok)) > 1 {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		return t
	}
	return strings.Join(kept, " ")
}

// Year returns the first 19xx/20xx token of s. When several years
// appear only the first counts.
func Year(s string) *int {
	m := yearRegex.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

var currencySuffixes = []string{"руб.", "руб", "р.", "р", "₽", "rub"}

// Price parses a scraped price. Outcomes:
//
//	""  / whitespace          -> nil
//	"1 299 ₽", "1 299"   -> 1299 (spaces and currency marks dropped)
//	"450,50"                  -> 450.5 (decimal comma)
//	"abc", "12-15"            -> nil (not a number)
//	"NaN", "Inf"              -> nil
//	"-5"                      -> nil (negative)
func Price(f models.Field) *float64 {
	s := strings.ToLower(f.String())
	if s == "" {
		return nil
	}
	for _, suffix := range currencySuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}
