package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/quillsign/quillsign/internal/esign/domain"
	"github.com/quillsign/quillsign/internal/models"
	"github.com/quillsign/quillsign/pkg/fp"
)

// Error codes for e-sign handlers
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeInvalidID         = "INVALID_ID"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeFieldValidation   = "FIELD_VALIDATION_ERROR"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeWorkflowViolation = "WORKFLOW_VIOLATION"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// parsePagination extracts pagination parameters from the query string
func parsePagination(r *http.Request) models.PaginationParams {
	page := 1
	pageSize := 20

	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}

	return models.PaginationParams{
		Page:     page,
		PageSize: pageSize,
	}
}

// parseSearchParams extracts search and sort parameters from the query string
func parseSearchParams(r *http.Request) models.SearchParams {
	return models.SearchParams{
		Query:   r.URL.Query().Get("q"),
		SortBy:  r.URL.Query().Get("sort_by"),
		SortDir: r.URL.Query().Get("sort_dir"),
	}
}

// accessCodeFromRequest reads the shared-secret a signer presents when the
// roster entry was created with one. Absent header means no code.
func accessCodeFromRequest(r *http.Request) string {
	return r.Header.Get("X-Access-Code")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	if data == nil {
		w.WriteHeader(status)
		return
	}

	// Encode first to check for errors
	jsonData, err := json.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonData)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.ErrorResponse(code, message, nil))
}

// writeServiceError maps workflow engine errors onto HTTP statuses.
// Field validation failures carry their findings as details.
func writeServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	var fieldErrs domain.FieldValidationErrors
	var fieldErr domain.FieldValidationError
	var notFound *domain.NotFoundError
	var permission *domain.PermissionError
	var violation *domain.WorkflowViolation
	var domainErr domain.DomainError
	var inputErrs fp.ValidationErrors

	switch {
	case errors.As(err, &inputErrs):
		writeJSON(w, http.StatusBadRequest,
			models.ErrorResponse(ErrCodeValidation, inputErrs.Error(), inputErrs))
	case errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusBadRequest,
			models.ErrorResponse(ErrCodeFieldValidation, "field validation failed", fieldErrs))
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest,
			models.ErrorResponse(ErrCodeFieldValidation, fieldErr.Message, []domain.FieldValidationError{fieldErr}))
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, notFound.Error())
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "document not found")
	case errors.As(err, &permission):
		writeError(w, http.StatusForbidden, ErrCodeForbidden, permission.Message)
	case errors.As(err, &violation):
		writeError(w, http.StatusConflict, ErrCodeWorkflowViolation, violation.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, ErrCodeConflict, "document was modified concurrently, retry")
	case errors.Is(err, domain.ErrSignerLocked):
		writeError(w, http.StatusConflict, ErrCodeConflict, domain.ErrSignerLocked.Error())
	case errors.As(err, &domainErr):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, domainErr.Message)
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
