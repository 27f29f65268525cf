// Package model defines the domain types shared across the reconciliation pipeline.
package model

// RawRecord is one row read from one source, reduced to the mapped roles.
// Immutable once produced by the loader.
type RawRecord struct {
	Source     string `json:"source"`
	EntityKey  string `json:"entity_key"`
	Identifier string `json:"identifier"`
}

// IdentifierClass tags an identifier with the format family it matches.
type IdentifierClass string

const (
	ClassBankVerification    IdentifierClass = "bvn"
	ClassNationalID          IdentifierClass = "nin"
	ClassTaxID               IdentifierClass = "tin"
	ClassPassport            IdentifierClass = "passport"
	ClassDriversLicense      IdentifierClass = "drivers_license"
	ClassVotersCard          IdentifierClass = "voters_card"
	ClassCompanyRegistration IdentifierClass = "company_registration"
	ClassUnclassified        IdentifierClass = "unclassified"
)

// Classes lists every concrete identifier class, in predicate priority order.
var Classes = []IdentifierClass{
	ClassBankVerification,
	ClassNationalID,
	ClassTaxID,
	ClassPassport,
	ClassDriversLicense,
	ClassVotersCard,
	ClassCompanyRegistration,
}

// ExceptionReason explains why a row was excluded from reconciliation.
type ExceptionReason string

const (
	ReasonMissingIdentifier   ExceptionReason = "missing_identifier"
	ReasonMalformedIdentifier ExceptionReason = "malformed_identifier"
	ReasonUnreadableSource    ExceptionReason = "unreadable_source"
)
