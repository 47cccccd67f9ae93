package model

import "encoding/json"

// PhoneFact is a persisted phone number linked to a debtor. PhoneE164 is
// unique per debtor; MatchStrength is fixed at creation.
type PhoneFact struct {
	ID                string          `json:"id,omitempty"`
	DebtorID          string          `json:"debtor_id"`
	PhoneE164         string          `json:"phone_e164"`
	MatchStrength     int             `json:"match_strength"`
	IsVerified        bool            `json:"is_verified"`
	VerificationScore int             `json:"verification_score"`
	LineType          string          `json:"line_type,omitempty"`
	CarrierName       string          `json:"carrier_name,omitempty"`
	RPVStatus         string          `json:"rpv_status,omitempty"`
	RPVConfidence     int             `json:"rpv_confidence,omitempty"`
	TwilioStatus      string          `json:"twilio_status,omitempty"`
	VerificationError string          `json:"verification_error,omitempty"`
	Provenance        string          `json:"provenance"`
	FirstSeen         string          `json:"first_seen,omitempty"`
	LastSeen          string          `json:"last_seen,omitempty"`
	RawPayload        json.RawMessage `json:"raw_payload,omitempty"`
}

// PhonePatch carries the verification outcome for a PhoneFact.
type PhonePatch struct {
	IsVerified        *bool           `json:"is_verified,omitempty"`
	VerificationScore *int            `json:"verification_score,omitempty"`
	LineType          *string         `json:"line_type,omitempty"`
	CarrierName       *string         `json:"carrier_name,omitempty"`
	RPVStatus         *string         `json:"rpv_status,omitempty"`
	RPVConfidence     *int            `json:"rpv_confidence,omitempty"`
	TwilioStatus      *string         `json:"twilio_status,omitempty"`
	VerificationError *string         `json:"verification_error,omitempty"`
	RawPayload        json.RawMessage `json:"raw_payload,omitempty"`
}

// EmailFact is a persisted, lowercased email address linked to a debtor.
type EmailFact struct {
	ID                string          `json:"id,omitempty"`
	DebtorID          string          `json:"debtor_id"`
	Email             string          `json:"email"`
	MatchStrength     int             `json:"match_strength"`
	IsVerified        bool            `json:"is_verified"`
	HunterStatus      string          `json:"hunter_status,omitempty"`
	HunterScore       int             `json:"hunter_score"`
	VerificationError string          `json:"verification_error,omitempty"`
	Provenance        string          `json:"provenance"`
	RawPayload        json.RawMessage `json:"raw_payload,omitempty"`
}

// EmailPatch carries the verification outcome for an EmailFact.
type EmailPatch struct {
	IsVerified        *bool           `json:"is_verified,omitempty"`
	HunterStatus      *string         `json:"hunter_status,omitempty"`
	HunterScore       *int            `json:"hunter_score,omitempty"`
	VerificationError *string         `json:"verification_error,omitempty"`
	RawPayload        json.RawMessage `json:"raw_payload,omitempty"`
}
