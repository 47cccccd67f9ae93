// Package scoring computes the bounded collectibility score of a debtor
// from its accumulated contact, address, legal and financial signals.
package scoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
)

// Score bounds and component caps.
const (
	Base     = 50
	MinScore = 1
	MaxScore = 100

	maxContactability = 35
	maxCapacity       = 25
	maxStability      = 10

	// DefaultFreshnessYear is the earliest last_seen year that counts as a
	// recent phone observation.
	DefaultFreshnessYear = 2024

	// CensusValueSource marks property values taken from the census ZCTA
	// median rather than a parcel-level source.
	CensusValueSource = "census_zip_median"
)

// Reason fragments, in the order they are reported.
const (
	ReasonVerifiedPhone = "verified phone"
	ReasonVerifiedEmail = "verified email"
	ReasonStandardized  = "address standardized"
	ReasonBankruptcy    = "bankruptcy history"
	ReasonBaseline      = "baseline"
)

// Signals is everything the score depends on.
type Signals struct {
	Phones             []model.PhoneFact
	Emails             []model.EmailFact
	Cases              []model.BankruptcyCase
	Properties         []model.Property
	UspsStandardized   bool
	DebtOwed           float64
	BusinessConfidence int
	FreshnessYear      int
	Now                time.Time
}

// Components are the per-signal contributions before clamping.
type Components struct {
	Contactability int `json:"contactability"`
	AddressQuality int `json:"address_quality"`
	Bankruptcy     int `json:"bankruptcy"`
	Capacity       int `json:"capacity"`
	Business       int `json:"business"`
	Stability      int `json:"stability"`
}

// Result is a computed score and its explanation.
type Result struct {
	Score      int
	Reason     string
	Components Components
}

// Compute scores s. It performs no I/O.
func Compute(s Signals) Result {
	if s.FreshnessYear == 0 {
		s.FreshnessYear = DefaultFreshnessYear
	}
	if s.Now.IsZero() {
		s.Now = time.Now().UTC()
	}

	phone := hasContactablePhone(s.Phones)
	email := hasVerifiedEmail(s.Emails)

	var c Components
	if phone {
		c.Contactability += 25
	}
	if email {
		c.Contactability += 10
	}
	if phone && email {
		c.Contactability = min(maxContactability, c.Contactability+5)
	}

	if s.UspsStandardized {
		c.AddressQuality = 10
	}

	c.Bankruptcy = bankruptcyPenalty(s.Cases, s.Now.Year())
	c.Capacity = capacity(s.Properties, s.DebtOwed)

	if s.BusinessConfidence >= 50 {
		c.Business += 6
	}
	if s.BusinessConfidence >= 70 {
		c.Business += 4
	}

	if s.UspsStandardized {
		c.Stability += 3
	}
	for _, p := range s.Phones {
		if freshYear(p.LastSeen, s.FreshnessYear) {
			c.Stability += 4
			break
		}
	}
	if email {
		c.Stability += 3
	}
	c.Stability = min(maxStability, c.Stability)

	total := Base + c.Contactability + c.AddressQuality + c.Capacity + c.Business + c.Stability + c.Bankruptcy

	var reasons []string
	if phone {
		reasons = append(reasons, ReasonVerifiedPhone)
	}
	if email {
		reasons = append(reasons, ReasonVerifiedEmail)
	}
	if s.UspsStandardized {
		reasons = append(reasons, ReasonStandardized)
	}
	if c.Bankruptcy != 0 {
		reasons = append(reasons, ReasonBankruptcy)
	}
	reason := strings.Join(reasons, ", ")
	if reason == "" {
		reason = ReasonBaseline
	}

	return Result{Score: min(MaxScore, max(MinScore, total)), Reason: reason, Components: c}
}

func hasContactablePhone(phones []model.PhoneFact) bool {
	for _, p := range phones {
		if !p.IsVerified {
			continue
		}
		switch p.LineType {
		case "", "mobile", "voip":
			return true
		}
	}
	return false
}

func hasVerifiedEmail(emails []model.EmailFact) bool {
	for _, e := range emails {
		if e.IsVerified {
			return true
		}
	}
	return false
}

// bankruptcyPenalty returns the most severe Chapter 7 penalty: -20 for a
// discharge within 3 years, -10 within 7, otherwise -5.
func bankruptcyPenalty(cases []model.BankruptcyCase, year int) int {
	penalty := 0
	for _, c := range cases {
		if !strings.HasPrefix(strings.TrimSpace(c.Chapter), "7") {
			continue
		}
		p := -5
		switch {
		case freshYear(c.DischargedDate, year-3):
			p = -20
		case freshYear(c.DischargedDate, year-7):
			p = -10
		}
		penalty = min(penalty, p)
	}
	return penalty
}

// capacity converts the best known property value into 0-25 points. Parcel
// valuations take precedence; census medians are used only when no parcel
// value exists.
func capacity(props []model.Property, debtOwed float64) int {
	var direct, census float64
	for i := range props {
		v := props[i].KnownValue()
		if v <= 0 {
			continue
		}
		if strings.HasSuffix(props[i].ValueSource, CensusValueSource) {
			census = max(census, v)
		} else {
			direct = max(direct, v)
		}
	}
	value := direct
	if value == 0 {
		value = census
	}

	points := 0
	if value > 0 {
		ratio := value / (debtOwed + 1)
		switch {
		case ratio >= 5:
			points = maxCapacity
		case ratio >= 1:
			points = int(25 * ratio / 5)
		}
	}
	for _, p := range props {
		if p.OwnerOccupied {
			points = min(maxCapacity, points+3)
			break
		}
	}
	return points
}

// freshYear reports whether the date's leading year is at least threshold.
func freshYear(date string, threshold int) bool {
	if len(date) < 4 {
		return false
	}
	y, err := strconv.Atoi(date[:4])
	return err == nil && y >= threshold
}
