// Package match scores how well an identity-search candidate matches a
// debtor, with hard address gates applied before any weighting.
package match

import (
	"math"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/KevinSGarrett/DebtCollect/internal/normalize"
)

// Thresholds used by the acceptance gates.
const (
	MinStreetSimilarity = 85
	nameWeight          = 0.6
	streetWeight        = 0.4
)

// indel scores substitutions as a delete plus an insert, so Similarity
// yields 1 - indel/(len(a)+len(b)).
var indel = levenshtein.NewParams().SubCost(2)

// Party is the comparable identity of a debtor or a candidate.
type Party struct {
	Name   string
	Street string
	State  string
	Zip    string
}

// Result is the outcome of comparing a target with a candidate.
type Result struct {
	Score        int
	Name         int
	Street       int
	Disqualified bool
	Reason       string
}

// Rejection reasons.
const (
	ReasonStateMismatch = "state_mismatch"
	ReasonZipMismatch   = "zip_mismatch"
	ReasonWeakStreet    = "weak_street"
)

// NameSimilarity returns a 0-100 token-order-insensitive similarity.
// Either side empty yields 0.
func NameSimilarity(a, b string) int {
	a = strings.TrimSpace(normalize.Upper(a))
	b = strings.TrimSpace(normalize.Upper(b))
	if a == "" || b == "" {
		return 0
	}
	return int(ratio(sortTokens(a), sortTokens(b)))
}

// StreetSimilarity returns a 0-100 similarity of two street lines after
// suffix abbreviation. Either side empty yields 0.
func StreetSimilarity(a, b string) int {
	a = normalize.Street(a)
	b = normalize.Street(b)
	if a == "" || b == "" {
		return 0
	}
	return int(ratio(a, b))
}

// NameAddress compares target and candidate. A present-and-differing
// state or zip, or a street similarity below MinStreetSimilarity, yields a
// disqualified result with score 0 regardless of the names.
func NameAddress(target, candidate Party) Result {
	ts, cs := state(target.State), state(candidate.State)
	if ts != "" && cs != "" && ts != cs {
		return Result{Disqualified: true, Reason: ReasonStateMismatch}
	}
	tz, cz := normalize.Zip5(target.Zip), normalize.Zip5(candidate.Zip)
	if tz != "" && cz != "" && tz != cz {
		return Result{Disqualified: true, Reason: ReasonZipMismatch}
	}

	street := StreetSimilarity(target.Street, candidate.Street)
	name := NameSimilarity(target.Name, candidate.Name)
	if street < MinStreetSimilarity {
		return Result{Name: name, Street: street, Disqualified: true, Reason: ReasonWeakStreet}
	}

	score := int(math.Round(nameWeight*float64(name) + streetWeight*float64(street)))
	return Result{Score: score, Name: name, Street: street}
}

// SameRegion reports whether the candidate is in the target's state and
// shares its zip, either exactly or by 5-digit prefix.
func SameRegion(target, candidate Party) bool {
	if state(target.State) != state(candidate.State) {
		return false
	}
	tz := strings.TrimSpace(target.Zip)
	cz := strings.TrimSpace(candidate.Zip)
	if tz == cz {
		return true
	}
	return len(tz) >= 5 && len(cz) >= 5 && tz[:5] == cz[:5]
}

func state(s string) string {
	return strings.TrimSpace(normalize.Upper(s))
}

func ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	return 100 * levenshtein.Similarity(a, b, indel)
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
