// Package model defines the typed records persisted by the enrichment pipeline.
package model

import "time"

// Collection names in the record store.
const (
	CollectionDebtors          = "debtors"
	CollectionPhones           = "phones"
	CollectionEmails           = "emails"
	CollectionAddresses        = "addresses"
	CollectionBankruptcyCases  = "bankruptcy_cases"
	CollectionProperties       = "properties"
	CollectionBusinesses       = "businesses"
	CollectionDebtorBusinesses = "debtor_businesses"
	CollectionSnapshots        = "scoring_snapshots"
	CollectionRuns             = "enrichment_runs"
)

// EnrichmentStatus tracks where a debtor is in the enrichment lifecycle.
type EnrichmentStatus string

const (
	EnrichmentPending  EnrichmentStatus = "pending"
	EnrichmentPartial  EnrichmentStatus = "partial"
	EnrichmentRunning  EnrichmentStatus = "running"
	EnrichmentComplete EnrichmentStatus = "complete"
	EnrichmentError    EnrichmentStatus = "error"
)

// Debtor is the identity being enriched. Stages mutate it incrementally
// through DebtorPatch; the pipeline never deletes it.
type Debtor struct {
	ID        string  `json:"id,omitempty" yaml:"id,omitempty"`
	FirstName string  `json:"first_name" yaml:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" yaml:"last_name" validate:"required,max=100"`
	Address1  string  `json:"address1" yaml:"address1" validate:"max=200"`
	Address2  string  `json:"address2,omitempty" yaml:"address2,omitempty" validate:"max=200"`
	City      string  `json:"city" yaml:"city" validate:"max=100"`
	State     string  `json:"state" yaml:"state" validate:"omitempty,len=2,alpha"`
	Zip       string  `json:"zip" yaml:"zip" validate:"omitempty,min=5,max=10"`
	DebtOwed  float64 `json:"debt_owed" yaml:"debt_owed" validate:"gte=0"`

	UspsStandardized      bool             `json:"usps_standardized" yaml:"-"`
	StandardizedAddressID string           `json:"standardized_address_id,omitempty" yaml:"-"`
	BestPhoneID           string           `json:"best_phone_id,omitempty" yaml:"-"`
	BestEmailID           string           `json:"best_email_id,omitempty" yaml:"-"`
	CollectibilityScore   *int             `json:"collectibility_score,omitempty" yaml:"-"`
	CollectibilityReason  string           `json:"collectibility_reason,omitempty" yaml:"-"`
	BusinessConfidence    int              `json:"business_confidence" yaml:"-"`
	EnrichmentStatus      EnrichmentStatus `json:"enrichment_status" yaml:"-"`
	LastEnrichedAt        *time.Time       `json:"last_enriched_at,omitempty" yaml:"-"`
	Age                   *int             `json:"age,omitempty" yaml:"-"`
	DOB                   string           `json:"dob,omitempty" yaml:"-"`
}

// FullName returns "First Last" with empty parts dropped.
func (d *Debtor) FullName() string {
	switch {
	case d.FirstName == "":
		return d.LastName
	case d.LastName == "":
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

// DebtorPatch is a partial update of a Debtor. Nil fields are left untouched.
type DebtorPatch struct {
	UspsStandardized      *bool             `json:"usps_standardized,omitempty"`
	StandardizedAddressID *string           `json:"standardized_address_id,omitempty"`
	BestPhoneID           *string           `json:"best_phone_id,omitempty"`
	BestEmailID           *string           `json:"best_email_id,omitempty"`
	CollectibilityScore   *int              `json:"collectibility_score,omitempty"`
	CollectibilityReason  *string           `json:"collectibility_reason,omitempty"`
	BusinessConfidence    *int              `json:"business_confidence,omitempty"`
	EnrichmentStatus      *EnrichmentStatus `json:"enrichment_status,omitempty"`
	LastEnrichedAt        *time.Time        `json:"last_enriched_at,omitempty"`
	Age                   *int              `json:"age,omitempty"`
	DOB                   *string           `json:"dob,omitempty"`
}

// IsEmpty reports whether the patch sets no fields.
func (p *DebtorPatch) IsEmpty() bool {
	return p == nil || *p == DebtorPatch{}
}

// Apply copies the set fields of p onto d so later stages observe them.
func (p *DebtorPatch) Apply(d *Debtor) {
	if p == nil || d == nil {
		return
	}
	if p.UspsStandardized != nil {
		d.UspsStandardized = *p.UspsStandardized
	}
	if p.StandardizedAddressID != nil {
		d.StandardizedAddressID = *p.StandardizedAddressID
	}
	if p.BestPhoneID != nil {
		d.BestPhoneID = *p.BestPhoneID
	}
	if p.BestEmailID != nil {
		d.BestEmailID = *p.BestEmailID
	}
	if p.CollectibilityScore != nil {
		v := *p.CollectibilityScore
		d.CollectibilityScore = &v
	}
	if p.CollectibilityReason != nil {
		d.CollectibilityReason = *p.CollectibilityReason
	}
	if p.BusinessConfidence != nil {
		d.BusinessConfidence = *p.BusinessConfidence
	}
	if p.EnrichmentStatus != nil {
		d.EnrichmentStatus = *p.EnrichmentStatus
	}
	if p.LastEnrichedAt != nil {
		t := *p.LastEnrichedAt
		d.LastEnrichedAt = &t
	}
	if p.Age != nil {
		v := *p.Age
		d.Age = &v
	}
	if p.DOB != nil {
		d.DOB = *p.DOB
	}
}

// Ptr returns a pointer to v. Used to build patches inline.
func Ptr[T any](v T) *T {
	return &v
}
