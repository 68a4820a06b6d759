package domain

import (
	"github.com/google/uuid"
)

// ID type aliases for type safety
type DocumentID uuid.UUID
type SignerID uuid.UUID
type FieldID uuid.UUID
type UserID uuid.UUID

// String methods for ID types
func (id DocumentID) String() string { return uuid.UUID(id).String() }
func (id SignerID) String() string   { return uuid.UUID(id).String() }
func (id FieldID) String() string    { return uuid.UUID(id).String() }
func (id UserID) String() string     { return uuid.UUID(id).String() }

// IsZero methods for ID types
func (id DocumentID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id SignerID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id FieldID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }

// NewDocumentID creates a new DocumentID
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// NewSignerID creates a new SignerID
func NewSignerID() SignerID { return SignerID(uuid.New()) }

// NewFieldID creates a new FieldID
func NewFieldID() FieldID { return FieldID(uuid.New()) }

// NewUserID creates a new UserID
func NewUserID() UserID { return UserID(uuid.New()) }

// DocumentStatus represents the lifecycle status of a document
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "PENDING"
	DocumentStatusSent     DocumentStatus = "SENT"
	DocumentStatusViewed   DocumentStatus = "VIEWED"
	DocumentStatusSigned   DocumentStatus = "SIGNED"
	DocumentStatusDeclined DocumentStatus = "DECLINED"
	DocumentStatusExpired  DocumentStatus = "EXPIRED"
)

// ValidTransitions defines valid document status transitions
var ValidTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentStatusPending:  {DocumentStatusSent, DocumentStatusDeclined, DocumentStatusExpired},
	DocumentStatusSent:     {DocumentStatusViewed, DocumentStatusDeclined, DocumentStatusExpired},
	DocumentStatusViewed:   {DocumentStatusViewed, DocumentStatusSigned, DocumentStatusDeclined, DocumentStatusExpired},
	DocumentStatusSigned:   {},
	DocumentStatusDeclined: {},
	DocumentStatusExpired:  {},
}

// CanTransitionTo checks if a transition is valid
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	valid, ok := ValidTransitions[s]
	if !ok {
		return false
	}
	for _, v := range valid {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal checks if the status admits no further transitions
func (s DocumentStatus) IsTerminal() bool {
	return len(ValidTransitions[s]) == 0
}

// IsSignable reports whether signer actions (field writes, completions)
// are still accepted in this status
func (s DocumentStatus) IsSignable() bool {
	return s == DocumentStatusSent || s == DocumentStatusViewed
}

// SignerStatus represents a signer's individual progress
type SignerStatus string

const (
	SignerStatusPending   SignerStatus = "PENDING"
	SignerStatusInvited   SignerStatus = "INVITED"
	SignerStatusViewed    SignerStatus = "VIEWED"
	SignerStatusCompleted SignerStatus = "COMPLETED"
	SignerStatusDeclined  SignerStatus = "DECLINED"
)

// signerStatusRank orders signer statuses so that progress is forward-only.
// COMPLETED and DECLINED share the top rank; both are terminal for a signer.
var signerStatusRank = map[SignerStatus]int{
	SignerStatusPending:   0,
	SignerStatusInvited:   1,
	SignerStatusViewed:    2,
	SignerStatusCompleted: 3,
	SignerStatusDeclined:  3,
}

// CanAdvanceTo checks that a signer status change never moves backwards
func (s SignerStatus) CanAdvanceTo(target SignerStatus) bool {
	from, ok := signerStatusRank[s]
	if !ok {
		return false
	}
	to, ok := signerStatusRank[target]
	if !ok {
		return false
	}
	if s == SignerStatusCompleted || s == SignerStatusDeclined {
		return false
	}
	return to > from
}

// IsTerminal checks if the signer can take no further action
func (s SignerStatus) IsTerminal() bool {
	return s == SignerStatusCompleted || s == SignerStatusDeclined
}

// FieldType represents the type of a document field
type FieldType string

const (
	FieldTypeSignature FieldType = "SIGNATURE"
	FieldTypeInitials  FieldType = "INITIALS"
	FieldTypeText      FieldType = "TEXT"
	FieldTypeDate      FieldType = "DATE"
	FieldTypeCheckbox  FieldType = "CHECKBOX"
	FieldTypeDropdown  FieldType = "DROPDOWN"
)

// DocumentType classifies the signable artifact
type DocumentType string

const (
	DocumentTypeContract  DocumentType = "CONTRACT"
	DocumentTypeAgreement DocumentType = "AGREEMENT"
	DocumentTypeForm      DocumentType = "FORM"
	DocumentTypeNDA       DocumentType = "NDA"
	DocumentTypeOther     DocumentType = "OTHER"
)

// ExtensionsVersion is the current version of the document extension map
const ExtensionsVersion = 1

// allowedExtensionKeys is the fixed key set accepted in a document's
// extension map; anything else is rejected at the boundary
var allowedExtensionKeys = map[string]bool{
	"department":   true,
	"cost_center":  true,
	"external_ref": true,
	"locale":       true,
}

// ValidateExtensions checks an extension map against the fixed key set
func ValidateExtensions(ext map[string]string) error {
	for k := range ext {
		if !allowedExtensionKeys[k] {
			return NewDomainError("unknown extension key %q", k)
		}
	}
	return nil
}
