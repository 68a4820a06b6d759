package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/quillsign/quillsign/internal/esign/domain"
	"github.com/quillsign/quillsign/internal/esign/service"
	"github.com/quillsign/quillsign/internal/middleware"
	"github.com/quillsign/quillsign/internal/models"
	"github.com/quillsign/quillsign/internal/storage"
	"github.com/quillsign/quillsign/pkg/fp"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	coord  *service.Coordinator
	blobs  storage.BlobStore
	logger *slog.Logger
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(coord *service.Coordinator, blobs storage.BlobStore, logger *slog.Logger) *DocumentHandler {
	if coord == nil {
		panic("coordinator is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &DocumentHandler{coord: coord, blobs: blobs, logger: logger}
}

// CreateDocumentRequest is the payload for creating a draft document
type CreateDocumentRequest struct {
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	Type              string            `json:"type,omitempty"`
	Key               string            `json:"key,omitempty"`
	SequentialSigning bool              `json:"sequential_signing"`
	ExpiresAt         *time.Time        `json:"expires_at,omitempty"`
	WatermarkText     *string           `json:"watermark_text,omitempty"`
	Extensions        map[string]string `json:"extensions,omitempty"`
}

// Create handles POST /api/v1/documents
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	authorID, ok := actorFromContext(w, r)
	if !ok {
		return
	}

	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidJSON, "invalid request body")
		return
	}

	result := h.coord.CreateDocument(r.Context(), tenantID, authorID, service.CreateDocumentRequest{
		Title:             req.Title,
		Description:       req.Description,
		Type:              domain.DocumentType(req.Type),
		Key:               req.Key,
		SequentialSigning: req.SequentialSigning,
		ExpiresAt:         req.ExpiresAt,
		WatermarkText:     req.WatermarkText,
		Extensions:        req.Extensions,
	})
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusCreated, models.SuccessResponse(toAggregateResponse(fp.GetValue(result))))
}

// Get handles GET /api/v1/documents/{id}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}

	result := h.coord.Get(r.Context(), tenantID, id)
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(toAggregateResponse(fp.GetValue(result))))
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	params := parsePagination(r)
	search := parseSearchParams(r)

	result := h.coord.List(r.Context(), tenantID, params, search)
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	page := fp.GetValue(result)
	responses := make([]DocumentResponse, 0, len(page.Documents))
	for _, d := range page.Documents {
		responses = append(responses, toDocumentResponse(d))
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(
		models.NewPaginatedResponse(responses, params.Page, params.PageSize, page.Total)))
}

// Delete handles DELETE /api/v1/documents/{id}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}
	actorID, ok := actorFromContext(w, r)
	if !ok {
		return
	}

	result := h.coord.DeleteDocument(r.Context(), tenantID, id, actorID)
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// AttachFileRequest is the payload for recording an uploaded file
type AttachFileRequest struct {
	FileURL string `json:"file_url"`
}

// AttachFile handles PUT /api/v1/documents/{id}/file
func (h *DocumentHandler) AttachFile(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}
	actorID, ok := actorFromContext(w, r)
	if !ok {
		return
	}

	var req AttachFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileURL == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidJSON, "file_url is required")
		return
	}

	result := h.coord.AttachFile(r.Context(), tenantID, id, actorID, req.FileURL)
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(toAggregateResponse(fp.GetValue(result))))
}

// maxUploadSize caps document uploads at 25MB
const maxUploadSize = 25 << 20

// Upload handles POST /api/v1/documents/{id}/upload. The raw body is
// stored as the document's file and its URL recorded on the draft.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}
	actorID, ok := actorFromContext(w, r)
	if !ok {
		return
	}

	if h.blobs == nil {
		writeError(w, http.StatusNotImplemented, ErrCodeInternal, "file storage is not configured")
		return
	}

	name := r.URL.Query().Get("filename")
	if name == "" {
		name = id.String() + ".pdf"
	}

	url, err := h.blobs.Put(r.Context(), tenantID, name, http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		h.logger.Error("file upload failed", "document_id", id.String(), "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to store file")
		return
	}

	result := h.coord.AttachFile(r.Context(), tenantID, id, actorID, url)
	if fp.IsFailure(result) {
		if delErr := h.blobs.Delete(r.Context(), tenantID, name); delErr != nil {
			h.logger.Warn("orphaned upload cleanup failed", "document_id", id.String(), "error", delErr)
		}
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(toAggregateResponse(fp.GetValue(result))))
}

// Send handles POST /api/v1/documents/{id}/send
func (h *DocumentHandler) Send(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}
	actorID, ok := actorFromContext(w, r)
	if !ok {
		return
	}

	result := h.coord.Send(r.Context(), tenantID, id, actorID)
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(toAggregateResponse(fp.GetValue(result))))
}

// Progress handles GET /api/v1/documents/{id}/progress
func (h *DocumentHandler) Progress(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	id, ok := documentIDFromPath(w, r)
	if !ok {
		return
	}

	result := h.coord.Progress(r.Context(), tenantID, id)
	if fp.IsFailure(result) {
		writeServiceError(h.logger, w, fp.GetError(result))
		return
	}

	report := fp.GetValue(result)
	resp := ProgressResponse{
		DocumentID: report.DocumentID.String(),
		Status:     string(report.Status),
		Completed:  report.Completed,
		Total:      report.Total,
	}
	if report.CurrentSignerID != nil {
		id := report.CurrentSignerID.String()
		resp.CurrentSignerID = &id
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse(resp))
}

// documentIDFromPath parses the {id} path segment, writing a 400 on failure
func documentIDFromPath(w http.ResponseWriter, r *http.Request) (domain.DocumentID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidID, "invalid document ID")
		return domain.DocumentID{}, false
	}
	return domain.DocumentID(id), true
}

// actorFromContext resolves the authenticated user, writing a 401 on failure
func actorFromContext(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	userID, err := uuid.Parse(middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid user ID")
		return domain.UserID{}, false
	}
	return domain.UserID(userID), true
}
