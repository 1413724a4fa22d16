// Package validation holds the stateless field predicates used to gate
// wizard steps. Predicates return a symbolic Reason; mapping a Reason to
// user-facing text is left to the presentation layer via Message.
package validation

import (
	"fmt"
	"strings"
)

// Reason is a symbolic validation failure code. The empty Reason means valid.
type Reason string

const (
	Valid Reason = ""

	ReasonRequired          Reason = "required"
	ReasonInvalidEmail      Reason = "invalid_email"
	ReasonInvalidPhone      Reason = "invalid_phone"
	ReasonInvalidCzechID    Reason = "invalid_czech_id"
	ReasonInvalidIDType     Reason = "invalid_id_type"
	ReasonInvalidDate       Reason = "invalid_date"
	ReasonUnknownZone       Reason = "unknown_zone"
	ReasonReturnNotAfter    Reason = "return_not_after_departure"
	ReasonAdultsMin         Reason = "adults_min"
	ReasonChildrenMin       Reason = "children_min"
	ReasonUnknownTier       Reason = "unknown_tier"
	ReasonInvalidChoice     Reason = "invalid_choice"
	ReasonPregnancyWeek     Reason = "invalid_pregnancy_week"
	ReasonDocumentMissing   Reason = "document_missing"
	ReasonDocumentTooLarge  Reason = "document_too_large"
	ReasonDocumentMediaType Reason = "document_media_type"
	ReasonConsentRequired   Reason = "consent_required"
)

var messages = map[Reason]string{
	ReasonRequired:          "This field is required",
	ReasonInvalidEmail:      "Please enter a valid email address",
	ReasonInvalidPhone:      "Please enter phone in format: +420 123 456 789",
	ReasonInvalidCzechID:    "Please enter valid Czech ID format: 123456/7890",
	ReasonInvalidIDType:     "Choose Czech personal ID or date of birth",
	ReasonInvalidDate:       "Please enter a date as YYYY-MM-DD",
	ReasonUnknownZone:       "Please select a destination",
	ReasonReturnNotAfter:    "Return date must be after departure date",
	ReasonAdultsMin:         "At least 1 adult required",
	ReasonChildrenMin:       "Children cannot be negative",
	ReasonUnknownTier:       "Please select a medical expense limit",
	ReasonInvalidChoice:     "Please select one of the offered options",
	ReasonPregnancyWeek:     "Pregnancy week must be between 1 and 42",
	ReasonDocumentMissing:   "Please upload your ID document",
	ReasonDocumentTooLarge:  "File size must be at most 2MB",
	ReasonDocumentMediaType: "Only JPG files are allowed",
	ReasonConsentRequired:   "This consent is required",
}

// Message returns the human-readable text for a reason.
func Message(r Reason) string {
	if m, ok := messages[r]; ok {
		return m
	}

	return string(r)
}

// FieldError ties a failing field to its reason.
type FieldError struct {
	Field  string `json:"field"`
	Reason Reason `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, Message(e.Reason))
}

// Errors is the set of failures reported for one step. A nil or empty
// Errors means every bound validator passed.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a failure when reason is not Valid.
func (e *Errors) Add(field string, reason Reason) {
	if reason == Valid {
		return
	}

	*e = append(*e, FieldError{Field: field, Reason: reason})
}

// Merge appends another set of failures.
func (e *Errors) Merge(other Errors) {
	*e = append(*e, other...)
}

// Has reports whether the field failed.
func (e Errors) Has(field string) bool {
	return e.Reason(field) != Valid
}

// Reason returns the first reason recorded for a field.
func (e Errors) Reason(field string) Reason {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Reason
		}
	}

	return Valid
}

// Err returns nil when there are no failures, so callers can return it as
// a plain error.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}

	return e
}
