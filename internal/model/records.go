package model

import (
	"encoding/json"
	"time"
)

// Address is a standardized mailing address row.
type Address struct {
	ID              string `json:"id,omitempty"`
	DebtorID        string `json:"debtor_id"`
	Line1           string `json:"line1"`
	Line2           string `json:"line2,omitempty"`
	City            string `json:"city"`
	State           string `json:"state"`
	Zip5            string `json:"zip5"`
	Zip4            string `json:"zip4,omitempty"`
	DPVConfirmation string `json:"dpv_confirmation,omitempty"`
	Confidence      int    `json:"confidence"`
	Provenance      string `json:"provenance"`
}

// BankruptcyCase is a court filing associated with a debtor.
type BankruptcyCase struct {
	ID             string `json:"id,omitempty"`
	DebtorID       string `json:"debtor_id"`
	CaseNumber     string `json:"case_number"`
	Court          string `json:"court,omitempty"`
	Chapter        string `json:"chapter,omitempty"`
	FiledDate      string `json:"filed_date,omitempty"`
	DischargedDate string `json:"discharged_date,omitempty"`
	Status         string `json:"status,omitempty"`
	DocketURL      string `json:"docket_url,omitempty"`
	Confidence     int    `json:"confidence"`
	Source         string `json:"source"`
}

// Property is a real-estate holding and its valuation.
type Property struct {
	ID            string   `json:"id,omitempty"`
	DebtorID      string   `json:"debtor_id"`
	AddressLine1  string   `json:"address_line1"`
	City          string   `json:"city,omitempty"`
	State         string   `json:"state,omitempty"`
	Zip           string   `json:"zip,omitempty"`
	MarketValue   *float64 `json:"market_value,omitempty"`
	AssessedValue *float64 `json:"assessed_value,omitempty"`
	TaxAmount     *float64 `json:"tax_amount,omitempty"`
	OwnerOccupied bool     `json:"owner_occupied"`
	ValueSource   string   `json:"value_source"`
}

// KnownValue returns the market value, falling back to the assessed value
// when the market value is absent or zero.
func (p *Property) KnownValue() float64 {
	if p.MarketValue != nil && *p.MarketValue > 0 {
		return *p.MarketValue
	}
	if p.AssessedValue != nil && *p.AssessedValue > 0 {
		return *p.AssessedValue
	}
	return 0
}

// Business is a company discovered for a debtor.
type Business struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Source  string `json:"source,omitempty"`
}

// DebtorBusiness links a debtor to a business.
type DebtorBusiness struct {
	ID         string `json:"id,omitempty"`
	DebtorID   string `json:"debtor_id"`
	BusinessID string `json:"business_id"`
	Role       string `json:"role"`
	Confidence int    `json:"confidence"`
}

// ScoringSnapshot is an append-only audit record of one scoring pass.
type ScoringSnapshot struct {
	ID        string          `json:"id,omitempty"`
	DebtorID  string          `json:"debtor_id"`
	Score     int             `json:"score"`
	Reason    string          `json:"reason"`
	Inputs    json.RawMessage `json:"inputs,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
