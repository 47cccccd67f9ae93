package skiptrace

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Shape is the layout of a raw identity-search record.
type Shape int

const (
	// Tabular records use indexed flat keys such as "Phone-1" and "Email-1".
	Tabular Shape = iota
	// Nested records carry list-valued phones and emails fields.
	Nested
)

func (s Shape) String() string {
	if s == Tabular {
		return "tabular"
	}
	return "nested"
}

// DetectShape reports Tabular when any key starts with Phone-1 or Email-1.
func DetectShape(raw map[string]any) Shape {
	for k := range raw {
		if strings.HasPrefix(k, "Phone-1") || strings.HasPrefix(k, "Email-1") {
			return Tabular
		}
	}
	return Nested
}

// RawPhone is an unnormalized phone value with its observation dates.
type RawPhone struct {
	Value     string
	FirstSeen string
	LastSeen  string
	Raw       any
}

// Candidate is the common form every raw record is reduced to.
type Candidate struct {
	Name   string
	Street string
	State  string
	Zip    string
	Phones []RawPhone
	Emails []string
	Age    *int
	DOB    string
	Shape  Shape
	Raw    map[string]any
}

// Extractor reduces one raw record of a known shape to a Candidate.
type Extractor interface {
	Extract(raw map[string]any) Candidate
}

var extractors = map[Shape]Extractor{
	Tabular: tabularExtractor{},
	Nested:  nestedExtractor{},
}

// Normalize detects the shape of raw and extracts it.
func Normalize(raw map[string]any) Candidate {
	shape := DetectShape(raw)
	c := extractors[shape].Extract(raw)
	c.Shape = shape
	c.Raw = raw
	c.Age = parseAge(raw["age"])
	c.DOB = parseDOB(raw)
	return c
}

// maxIndexed bounds the Phone-N/Email-N scan.
const maxIndexed = 9

type tabularExtractor struct{}

func (tabularExtractor) Extract(raw map[string]any) Candidate {
	c := Candidate{
		Name:   strings.TrimSpace(str(raw, "First Name") + " " + str(raw, "Last Name")),
		Street: str(raw, "Street Address"),
		State:  str(raw, "Address Region"),
		Zip:    str(raw, "Postal Code"),
	}
	for i := 1; i <= maxIndexed; i++ {
		key := fmt.Sprintf("Phone-%d", i)
		num := str(raw, key)
		if num == "" {
			continue
		}
		item := map[string]any{
			"number":    num,
			"type":      str(raw, key+" Type"),
			"lastSeen":  str(raw, key+" Last Reported"),
			"firstSeen": str(raw, key+" First Reported"),
			"provider":  str(raw, key+" Provider"),
		}
		c.Phones = append(c.Phones, RawPhone{
			Value:     num,
			FirstSeen: item["firstSeen"].(string),
			LastSeen:  item["lastSeen"].(string),
			Raw:       item,
		})
	}
	for i := 1; i <= maxIndexed; i++ {
		if em := str(raw, fmt.Sprintf("Email-%d", i)); em != "" {
			c.Emails = append(c.Emails, em)
		}
	}
	return c
}

var (
	phonePaths = [][]string{
		{"phones"}, {"phoneNumbers"}, {"contact_phones"},
		{"contacts", "phones"}, {"contacts", "phoneNumbers"},
	}
	emailPaths = [][]string{
		{"emails"}, {"emailAddresses"}, {"contacts", "emails"},
	}
	phoneKeys     = []string{"e164", "number", "phone", "phoneNumber", "value"}
	emailKeys     = []string{"email", "address", "value"}
	firstSeenKeys = []string{"firstSeen", "first_seen", "first_seen_at", "firstObserved"}
	lastSeenKeys  = []string{"lastSeen", "last_seen", "last_seen_at", "lastObserved", "observedAt"}
)

type nestedExtractor struct{}

func (nestedExtractor) Extract(raw map[string]any) Candidate {
	name := firstString(raw, "fullName", "name")
	if name == "" {
		name = strings.TrimSpace(str(raw, "firstName") + " " + str(raw, "lastName"))
	}
	c := Candidate{
		Name:   name,
		Street: firstString(raw, "street", "address1", "addressLine1"),
		State:  str(raw, "state"),
		Zip:    str(raw, "zip"),
	}

	for _, item := range firstList(raw, phonePaths) {
		var p RawPhone
		switch v := item.(type) {
		case string:
			p.Value = v
		case map[string]any:
			p.Value = firstString(v, phoneKeys...)
			p.FirstSeen = firstString(v, firstSeenKeys...)
			p.LastSeen = firstString(v, lastSeenKeys...)
		}
		if strings.TrimSpace(p.Value) == "" {
			continue
		}
		p.Raw = item
		c.Phones = append(c.Phones, p)
	}

	for _, item := range firstList(raw, emailPaths) {
		var em string
		switch v := item.(type) {
		case string:
			em = v
		case map[string]any:
			em = firstString(v, emailKeys...)
		}
		if em = strings.TrimSpace(em); em != "" {
			c.Emails = append(c.Emails, em)
		}
	}
	return c
}

// firstList returns the first path that resolves to a list.
func firstList(raw map[string]any, paths [][]string) []any {
	for _, path := range paths {
		var node any = raw
		ok := true
		for _, k := range path {
			m, isMap := node.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			if node, ok = m[k]; !ok {
				break
			}
		}
		if list, isList := node.([]any); ok && isList {
			return list
		}
	}
	return nil
}

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(m, k); s != "" {
			return s
		}
	}
	return ""
}

var digits = regexp.MustCompile(`\d+`)

func parseAge(v any) *int {
	switch a := v.(type) {
	case float64:
		if a > 0 {
			n := int(a)
			return &n
		}
	case string:
		if m := digits.FindString(a); m != "" {
			if n, err := strconv.Atoi(m); err == nil && n > 0 {
				return &n
			}
		}
	}
	return nil
}

func parseDOB(raw map[string]any) string {
	dob := firstString(raw, "dob", "dateOfBirth", "birthDate")
	if dob == "" {
		return ""
	}
	if d := ParseSeenDate(dob); d != "" {
		return d
	}
	return dob
}

// ParseSeenDate converts provider date strings to YYYY-MM-DD. "Last
// reported Jul 2025" becomes the first day of that year; ISO dates are
// kept. Anything else yields "".
func ParseSeenDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(s, "Last reported"); ok {
		rest = strings.TrimSpace(rest)
		if len(rest) < 4 {
			return ""
		}
		year := rest[len(rest)-4:]
		if _, err := strconv.Atoi(year); err != nil {
			return ""
		}
		return year + "-01-01"
	}
	if len(s) == 10 && strings.Count(s, "-") == 2 {
		return s
	}
	return ""
}
