package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across the workflow engine
var (
	// ErrConflict indicates a concurrent write was detected by the store
	ErrConflict = errors.New("aggregate version conflict")

	// ErrSignerLocked indicates signer removal was attempted after sending
	ErrSignerLocked = errors.New("signers cannot be removed after the document is sent")
)

// DomainError represents a domain-level invariant violation
type DomainError struct {
	Message string
}

func (e DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(format string, args ...interface{}) error {
	return DomainError{Message: fmt.Sprintf(format, args...)}
}

// WorkflowViolation reports an action inconsistent with the document's
// current lifecycle state, with expected-vs-actual context
type WorkflowViolation struct {
	Expected string
	Actual   string
	Message  string
}

func (e *WorkflowViolation) Error() string {
	if e.Expected != "" || e.Actual != "" {
		return fmt.Sprintf("workflow violation: %s (expected %s, actual %s)", e.Message, e.Expected, e.Actual)
	}
	return "workflow violation: " + e.Message
}

// NewWorkflowViolation creates a WorkflowViolation with state context
func NewWorkflowViolation(expected, actual, format string, args ...interface{}) error {
	return &WorkflowViolation{
		Expected: expected,
		Actual:   actual,
		Message:  fmt.Sprintf(format, args...),
	}
}

// PermissionError reports an action attempted by the wrong signer or role
type PermissionError struct {
	Actor   string
	Message string
}

func (e *PermissionError) Error() string {
	if e.Actor != "" {
		return fmt.Sprintf("permission denied for %s: %s", e.Actor, e.Message)
	}
	return "permission denied: " + e.Message
}

// NewPermissionError creates a PermissionError
func NewPermissionError(actor, format string, args ...interface{}) error {
	return &PermissionError{Actor: actor, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown document, signer or field identifier
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// Severity ranks a field validation finding
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// FieldValidationError carries field-level detail for a failed rule
type FieldValidationError struct {
	FieldID  FieldID  `json:"field_id"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (e FieldValidationError) Error() string {
	return fmt.Sprintf("field %s: %s", e.FieldID, e.Message)
}

// Blocking reports whether the finding prevents progress
func (e FieldValidationError) Blocking() bool {
	return e.Severity == SeverityError
}

// FieldValidationErrors aggregates findings across a signer's fields
type FieldValidationErrors []FieldValidationError

func (e FieldValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasBlocking reports whether any finding has error severity
func (e FieldValidationErrors) HasBlocking() bool {
	for _, err := range e {
		if err.Blocking() {
			return true
		}
	}
	return false
}
