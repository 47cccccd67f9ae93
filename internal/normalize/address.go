// Package normalize canonicalizes addresses and phone numbers into
// comparable forms.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// suffixes maps common street-suffix words to their USPS abbreviations.
var suffixes = []struct {
	re   *regexp.Regexp
	abbr string
}{
	{regexp.MustCompile(`\bSTREET\b`), "ST"},
	{regexp.MustCompile(`\bAVENUE\b`), "AVE"},
	{regexp.MustCompile(`\bBOULEVARD\b`), "BLVD"},
	{regexp.MustCompile(`\bROAD\b`), "RD"},
	{regexp.MustCompile(`\bDRIVE\b`), "DR"},
	{regexp.MustCompile(`\bCOURT\b`), "CT"},
	{regexp.MustCompile(`\bLANE\b`), "LN"},
	{regexp.MustCompile(`\bTERRACE\b`), "TER"},
}

// Address is a canonical mailing address.
type Address struct {
	Line1 string
	Line2 string
	City  string
	State string
	Zip   string
}

// NewAddress canonicalizes the given components: upper-case, collapsed
// whitespace, abbreviated street suffixes and a 5-digit zip.
// Applying it to its own output changes nothing.
func NewAddress(line1, line2, city, state, zip string) Address {
	return Address{
		Line1: Street(line1),
		Line2: Street(line2),
		City:  collapse(Upper(city)),
		State: strings.TrimSpace(Upper(state)),
		Zip:   Zip5(zip),
	}
}

// Street upper-cases s, abbreviates street suffixes and collapses whitespace.
func Street(s string) string {
	s = Upper(s)
	for _, sfx := range suffixes {
		s = sfx.re.ReplaceAllString(s, sfx.abbr)
	}
	return collapse(s)
}

// Upper upper-cases s using US English rules.
func Upper(s string) string {
	return cases.Upper(language.AmericanEnglish).String(s)
}

// Zip5 trims z and returns at most its first five characters.
func Zip5(z string) string {
	z = strings.TrimSpace(z)
	if len(z) > 5 {
		return z[:5]
	}
	return z
}

// Name joins first and last into one upper-cased, space-collapsed string.
func Name(first, last string) string {
	return collapse(Upper(first + " " + last))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
