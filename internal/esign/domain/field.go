package domain

import (
	"time"
)

// RuleKind identifies a field validation rule
type RuleKind string

const (
	RuleRequired  RuleKind = "REQUIRED"
	RuleEmail     RuleKind = "EMAIL"
	RuleNumeric   RuleKind = "NUMERIC_RANGE"
	RulePattern   RuleKind = "PATTERN"
	RuleMinLength RuleKind = "MIN_LENGTH"
	RuleMaxLength RuleKind = "MAX_LENGTH"
)

// ValidationRule is a declarative constraint on a field's value.
// Min/Max are decimal strings for NUMERIC_RANGE, Pattern a regular
// expression for PATTERN, Length the bound for the length rules.
type ValidationRule struct {
	Kind    RuleKind `json:"kind"`
	Min     string   `json:"min,omitempty"`
	Max     string   `json:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
	Length  int      `json:"length,omitempty"`
}

// ConditionOperator compares a referenced field's value against a literal
type ConditionOperator string

const (
	ConditionEquals    ConditionOperator = "EQUALS"
	ConditionNotEquals ConditionOperator = "NOT_EQUALS"
	ConditionPresent   ConditionOperator = "PRESENT"
	ConditionAbsent    ConditionOperator = "ABSENT"
)

// ConditionalLogic is a predicate over another field's value that controls
// whether this field is currently active
type ConditionalLogic struct {
	FieldID  FieldID           `json:"field_id"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value,omitempty"`
}

// Geometry is a field's placement on a page. Coordinates and sizes are
// fractions of the page dimensions in [0,1].
type Geometry struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// InBounds checks that the placement fits the page. Out-of-bounds geometry
// is rejected, never clamped.
func (g Geometry) InBounds() bool {
	if g.Page < 1 {
		return false
	}
	if g.X < 0 || g.Y < 0 || g.Width <= 0 || g.Height <= 0 {
		return false
	}
	return g.X+g.Width <= 1 && g.Y+g.Height <= 1
}

// FieldStyle holds optional presentation attributes
type FieldStyle struct {
	Color           string `json:"color,omitempty"`
	Font            string `json:"font,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	BorderColor     string `json:"border_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
}

// DocumentField represents one fillable region on a document page (immutable)
type DocumentField struct {
	ID          FieldID           `json:"id"`
	DocumentID  DocumentID        `json:"document_id"`
	Type        FieldType         `json:"type"`
	Label       string            `json:"label"`
	Required    bool              `json:"required"`
	Geometry    Geometry          `json:"geometry"`
	Value       *string           `json:"value,omitempty"`
	SignerID    *SignerID         `json:"signer_id,omitempty"`
	Style       *FieldStyle       `json:"style,omitempty"`
	Rule        *ValidationRule   `json:"rule,omitempty"`
	Conditional *ConditionalLogic `json:"conditional,omitempty"`
	Options     []string          `json:"options,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
}

// WithValue returns a copy with an updated value
func (f DocumentField) WithValue(value string) DocumentField {
	now := time.Now()
	f.Value = &value
	f.UpdatedAt = &now
	return f
}

// WithRule returns a copy with a validation rule attached
func (f DocumentField) WithRule(rule ValidationRule) DocumentField {
	f.Rule = &rule
	return f
}

// WithConditional returns a copy with conditional logic attached
func (f DocumentField) WithConditional(logic ConditionalLogic) DocumentField {
	f.Conditional = &logic
	return f
}

// AssignedTo checks whether the field belongs to the given signer
func (f DocumentField) AssignedTo(id SignerID) bool {
	return f.SignerID != nil && *f.SignerID == id
}

// NewDocumentField creates a new DocumentField
func NewDocumentField(documentID DocumentID, fieldType FieldType, label string, required bool, geometry Geometry, signerID *SignerID) DocumentField {
	return DocumentField{
		ID:         NewFieldID(),
		DocumentID: documentID,
		Type:       fieldType,
		Label:      label,
		Required:   required,
		Geometry:   geometry,
		SignerID:   signerID,
		CreatedAt:  time.Now(),
	}
}
