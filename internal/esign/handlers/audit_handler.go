package handlers

import (
	"log/slog"
	"net/http"

	"github.com/quillsign/quillsign/internal/esign/service"
	"github.com/quillsign/quillsign/internal/middleware"
	"github.com/quillsign/quillsign/internal/models"
	"github.com/quillsign/quillsign/pkg/fp"
)

// AuditHandler handles audit trail HTTP requests
type AuditHandler struct {
	store  service.AuditStore
	logger *slog.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(store service.AuditStore, logger *slog.Logger) *AuditHandler {
	if store == nil {
		panic("audit store is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &AuditHandler{store: store, logger: logger}
}

// ListForDocument handles GET /api/v1/documents/{id}/audit
func (h *AuditHandler) ListForDocument(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}

	result := h.store.ListByEntity(r.Context(), tenantID, "document", id.String())
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	entries := fp.GetValue(result)
	responses := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, toAuditEntryResponse(e))
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(responses))
}
