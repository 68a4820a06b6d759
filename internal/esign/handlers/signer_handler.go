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

// SignerHandler handles signer HTTP requests
type SignerHandler struct {
	coord  *service.Coordinator
	logger *slog.Logger
}

// NewSignerHandler creates a new SignerHandler
func NewSignerHandler(coord *service.Coordinator, logger *slog.Logger) *SignerHandler {
	if coord == nil {
		panic("coordinator is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &SignerHandler{coord: coord, logger: logger}
}

// AddSignerRequest is the payload for adding a signer to a draft
type AddSignerRequest struct {
	Email      string  `json:"email"`
	Name       string  `json:"name,omitempty"`
	Role       string  `json:"role,omitempty"`
	Order      int     `json:"order"`
	AccessCode *string `json:"access_code,omitempty"`
}

// Add handles POST /api/v1/documents/{id}/signers
func (h *SignerHandler) Add(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}
	actorID, ok := actorFromContext(w, r)
	if !ok {
		return
	}

	var req AddSignerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidJSON, "invalid request body")
		return
	}

	result := h.coord.AddSigner(r.Context(), tenantID, id, actorID,
		req.Email, req.Name, req.Role, req.Order, req.AccessCode)
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusCreated, models.SuccessResponse(toAggregateResponse(fp.GetValue(result))))
}

// Remove handles DELETE /api/v1/documents/{id}/signers/{signerId}
func (h *SignerHandler) Remove(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}
	signerID, ok := signerIDFromPath(w, r)
	if !ok {
		return
	}
	actorID, ok := actorFromContext(w, r)
	if !ok {
		return
	}

	result := h.coord.RemoveSigner(r.Context(), tenantID, id, actorID, signerID)
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(toAggregateResponse(fp.GetValue(result))))
}

// View handles POST /api/v1/documents/{id}/signers/{signerId}/view
func (h *SignerHandler) View(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}
	signerID, ok := signerIDFromPath(w, r)
	if !ok {
		return
	}

	result := h.coord.RecordView(r.Context(), tenantID, id, signerID, accessCodeFromRequest(r))
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(toAggregateResponse(fp.GetValue(result))))
}

// Complete handles POST /api/v1/documents/{id}/signers/{signerId}/complete
func (h *SignerHandler) Complete(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}
	signerID, ok := signerIDFromPath(w, r)
	if !ok {
		return
	}

	result := h.coord.CompleteTurn(r.Context(), tenantID, id, signerID, accessCodeFromRequest(r))
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(toAggregateResponse(fp.GetValue(result))))
}

// DeclineRequest is the payload for declining to sign
type DeclineRequest struct {
	Reason string `json:"reason"`
}

// Decline handles POST /api/v1/documents/{id}/signers/{signerId}/decline
func (h *SignerHandler) Decline(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}
	signerID, ok := signerIDFromPath(w, r)
	if !ok {
		return
	}

	var req DeclineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidJSON, "reason is required")
		return
	}

	result := h.coord.Decline(r.Context(), tenantID, id, signerID, req.Reason, accessCodeFromRequest(r))
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(toAggregateResponse(fp.GetValue(result))))
}

// signerIDFromPath parses the {signerId} path segment, writing a 400 on failure
func signerIDFromPath(w http.ResponseWriter, r *http.Request) (domain.SignerID, bool) {
	id, err := uuid.Parse(r.PathValue("signerId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid signer ID")
		return domain.SignerID{}, false
	}
	return domain.SignerID(id), true
}
