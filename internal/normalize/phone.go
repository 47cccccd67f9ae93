package normalize

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a raw number carries no country code.
const DefaultRegion = "US"

// ToE164 parses raw in region and returns its E.164 form. Numbers that
// fail to parse, or are not possible and valid for their region, return
// ok=false. It never panics on malformed input.
func ToE164(raw, region string) (e164 string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if region == "" {
		region = DefaultRegion
	}

	defer func() {
		if r := recover(); r != nil {
			e164, ok = "", false
		}
	}()

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsPossibleNumber(num) || !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

// NationalDigits returns the 10-digit national number for a US E.164
// value, or the digits of e164 with a leading country code removed.
func NationalDigits(e164 string) string {
	var b strings.Builder
	for _, r := range e164 {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) == 11 && d[0] == '1' {
		return d[1:]
	}
	return d
}
