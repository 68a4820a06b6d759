package service

import (
	"github.com/quillsign/quillsign/internal/esign/domain"
)

// Registry owns the set of fields attached to a document: placement,
// typing and per-signer assignment. Like the Lifecycle it works on
// in-memory aggregates and leaves persistence to the Coordinator.
type Registry struct{}

// NewRegistry creates a Registry
func NewRegistry() *Registry {
	return &Registry{}
}

// AddFieldRequest describes a field to place on a document
type AddFieldRequest struct {
	Type        domain.FieldType
	Label       string
	Required    bool
	Geometry    domain.Geometry
	SignerID    *domain.SignerID
	Rule        *domain.ValidationRule
	Conditional *domain.ConditionalLogic
	Options     []string
	Style       *domain.FieldStyle
}

// AddField places a new field on a pending document. Geometry must fit the
// page and an assigned signer must belong to the same document.
func (r *Registry) AddField(a *domain.Aggregate, actorID domain.UserID, req AddFieldRequest) (domain.DocumentField, error) {
	doc := a.Document
	if doc.AuthorID != actorID {
		return domain.DocumentField{}, domain.NewPermissionError(actorID.String(), "only the author may add fields")
	}
	if doc.Status != domain.DocumentStatusPending {
		return domain.DocumentField{}, domain.NewWorkflowViolation(
			string(domain.DocumentStatusPending), string(doc.Status), "fields cannot be added after sending")
	}
	if !req.Geometry.InBounds() {
		return domain.DocumentField{}, domain.NewDomainError(
			"field placement out of page bounds: page %d at (%.2f, %.2f) size %.2fx%.2f",
			req.Geometry.Page, req.Geometry.X, req.Geometry.Y, req.Geometry.Width, req.Geometry.Height)
	}
	if req.SignerID != nil {
		if _, ok := a.Signer(*req.SignerID); !ok {
			return domain.DocumentField{}, domain.NewDomainError("signer %s does not belong to document %s", req.SignerID, doc.ID)
		}
	}

	field := domain.NewDocumentField(doc.ID, req.Type, req.Label, req.Required, req.Geometry, req.SignerID)
	field.Rule = req.Rule
	field.Conditional = req.Conditional
	field.Options = req.Options
	field.Style = req.Style
	a.Fields = append(a.Fields, field)
	return field, nil
}

// SetFieldValue writes a value on behalf of a signer. The acting signer must
// be the field's assigned signer, or the field must be unassigned and the
// signer entitled to act now. The document must still be open for signing.
func (r *Registry) SetFieldValue(a *domain.Aggregate, signerID domain.SignerID, fieldID domain.FieldID, value string) (domain.DocumentField, error) {
	doc := a.Document
	if !doc.Status.IsSignable() {
		return domain.DocumentField{}, domain.NewWorkflowViolation(
			string(domain.DocumentStatusViewed), string(doc.Status), "document is not open for signing")
	}
	field, ok := a.Field(fieldID)
	if !ok {
		return domain.DocumentField{}, domain.NewNotFoundError("field", fieldID.String())
	}
	signer, ok := a.Signer(signerID)
	if !ok {
		return domain.DocumentField{}, domain.NewNotFoundError("signer", signerID.String())
	}
	if signer.Status.IsTerminal() {
		return domain.DocumentField{}, domain.NewWorkflowViolation(
			string(domain.SignerStatusViewed), string(signer.Status), "signer already finished")
	}

	switch {
	case field.AssignedTo(signerID):
		// The field's own signer may always write during their window.
	case field.SignerID == nil && a.CanAct(signerID):
		// Unassigned fields are writable by whoever is entitled to act.
	default:
		return domain.DocumentField{}, domain.NewPermissionError(signerID.String(), "field %s is not assigned to this signer", fieldID)
	}

	updated := field.WithValue(value)
	a.ReplaceField(updated)
	return updated, nil
}

// SetFieldValueByAuthor writes a value while the document is still being
// composed. Permitted only pre-send and only for the author.
func (r *Registry) SetFieldValueByAuthor(a *domain.Aggregate, actorID domain.UserID, fieldID domain.FieldID, value string) (domain.DocumentField, error) {
	doc := a.Document
	if doc.AuthorID != actorID {
		return domain.DocumentField{}, domain.NewPermissionError(actorID.String(), "only the author may prefill fields")
	}
	if doc.Status != domain.DocumentStatusPending {
		return domain.DocumentField{}, domain.NewWorkflowViolation(
			string(domain.DocumentStatusPending), string(doc.Status), "author writes are only allowed before sending")
	}
	field, ok := a.Field(fieldID)
	if !ok {
		return domain.DocumentField{}, domain.NewNotFoundError("field", fieldID.String())
	}
	updated := field.WithValue(value)
	a.ReplaceField(updated)
	return updated, nil
}

// AllFieldsSatisfied runs the validation engine over every active required
// field owned by the signer. The result gates turn completion; it is pure
// and may be re-run any number of times with identical output.
func (r *Registry) AllFieldsSatisfied(a *domain.Aggregate, signerID domain.SignerID) domain.FieldValidationErrors {
	return domain.ValidateSignerFields(a, signerID)
}
