package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/quillsign/quillsign/internal/esign/domain"
	"github.com/quillsign/quillsign/internal/esign/service"
	"github.com/quillsign/quillsign/internal/middleware"
	"github.com/quillsign/quillsign/internal/models"
	"github.com/quillsign/quillsign/pkg/fp"
)

// FieldHandler handles document field HTTP requests
type FieldHandler struct {
	coord  *service.Coordinator
	logger *slog.Logger
}

// NewFieldHandler creates a new FieldHandler
func NewFieldHandler(coord *service.Coordinator, logger *slog.Logger) *FieldHandler {
	if coord == nil {
		panic("coordinator is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &FieldHandler{coord: coord, logger: logger}
}

// AddFieldRequest is the payload for placing a field on a draft
type AddFieldRequest struct {
	Type        string                   `json:"type"`
	Label       string                   `json:"label"`
	Required    bool                     `json:"required"`
	Geometry    domain.Geometry          `json:"geometry"`
	SignerID    *string                  `json:"signer_id,omitempty"`
	Rule        *domain.ValidationRule   `json:"rule,omitempty"`
	Conditional *domain.ConditionalLogic `json:"conditional,omitempty"`
	Options     []string                 `json:"options,omitempty"`
	Style       *domain.FieldStyle       `json:"style,omitempty"`
}

// Add handles POST /api/v1/documents/{id}/fields
func (h *FieldHandler) Add(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}
	actorID, ok := actorFromContext(w, r)
	if !ok {
		return
	}

	var req AddFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidJSON, "invalid request body")
		return
	}

	svcReq := service.AddFieldRequest{
		Type:        domain.FieldType(req.Type),
		Label:       req.Label,
		Required:    req.Required,
		Geometry:    req.Geometry,
		Rule:        req.Rule,
		Conditional: req.Conditional,
		Options:     req.Options,
		Style:       req.Style,
	}
	if req.SignerID != nil {
		signerID, err := uuid.Parse(*req.SignerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid signer ID")
			return
		}
		sID := domain.SignerID(signerID)
		svcReq.SignerID = &sID
	}

	result := h.coord.AddField(r.Context(), tenantID, id, actorID, svcReq)
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusCreated, models.SuccessResponse(toAggregateResponse(fp.GetValue(result))))
}

// SetValueRequest is the payload for filling a field
type SetValueRequest struct {
	SignerID string `json:"signer_id,omitempty"`
	Value    string `json:"value"`
}

// SetValue handles PUT /api/v1/documents/{id}/fields/{fieldId}/value.
// A signer_id in the payload fills the field as that signer; without one
// the authenticated author fills it pre-send.
func (h *FieldHandler) SetValue(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}
	fieldID, ok := fieldIDFromPath(w, r)
	if !ok {
		return
	}

	var req SetValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidJSON, "invalid request body")
		return
	}

	var result fp.Result[domain.Aggregate]
	if req.SignerID != "" {
		signerID, err := uuid.Parse(req.SignerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid signer ID")
			return
		}
		result = h.coord.SetFieldValue(r.Context(), tenantID, id, domain.SignerID(signerID), fieldID, req.Value, accessCodeFromRequest(r))
	} else {
		actorID, ok := actorFromContext(w, r)
		if !ok {
			return
		}
		result = h.coord.SetFieldValueByAuthor(r.Context(), tenantID, id, actorID, fieldID, req.Value)
	}

	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(toAggregateResponse(fp.GetValue(result))))
}

// Validate handles GET /api/v1/documents/{id}/signers/{signerId}/validate.
// Reports current findings without changing anything; blocking findings
// are what CompleteTurn would reject on.
func (h *FieldHandler) Validate(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}
	signerID, ok := signerIDFromPath(w, r)
	if !ok {
		return
	}

	result := h.coord.Get(r.Context(), tenantID, id)
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	agg := fp.GetValue(result)
	findings := domain.ValidateSignerFields(&agg, signerID)

	writeJSON(w, http.StatusOK, models.SuccessResponse(map[string]interface{}{
		"findings": findings,
		"blocking": findings.HasBlocking(),
	}))
}

// fieldIDFromPath parses the {fieldId} path segment, writing a 400 on failure
func fieldIDFromPath(w http.ResponseWriter, r *http.Request) (domain.FieldID, bool) {
	id, err := uuid.Parse(r.PathValue("fieldId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid field ID")
		return domain.FieldID{}, false
	}
	return domain.FieldID(id), true
}
