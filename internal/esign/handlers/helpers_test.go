package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quillsign/quillsign/internal/esign/domain"
	"github.com/quillsign/quillsign/internal/models"
	"github.com/quillsign/quillsign/pkg/fp"
)

func TestWriteServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"field validation", domain.FieldValidationErrors{{Code: domain.CodeRequired, Message: "Name is required", Severity: domain.SeverityError}}, http.StatusBadRequest, ErrCodeFieldValidation},
		{"input validation", fp.ValidationErrors{{Field: "title", Message: "is required"}}, http.StatusBadRequest, ErrCodeValidation},
		{"not found", domain.NewNotFoundError("document", "abc"), http.StatusNotFound, ErrCodeNotFound},
		{"no rows", sql.ErrNoRows, http.StatusNotFound, ErrCodeNotFound},
		{"permission", domain.NewPermissionError("user", "not the author"), http.StatusForbidden, ErrCodeForbidden},
		{"workflow violation", domain.NewWorkflowViolation("PENDING", "SENT", "already sent"), http.StatusConflict, ErrCodeWorkflowViolation},
		{"version conflict", fmt.Errorf("save: %w", domain.ErrConflict), http.StatusConflict, ErrCodeConflict},
		{"signer locked", domain.ErrSignerLocked, http.StatusConflict, ErrCodeConflict},
		{"domain error", domain.NewDomainError("duplicate signing order"), http.StatusBadRequest, ErrCodeValidation},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternal},
	}
	logger := slog.New(slog.DiscardHandler)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(logger, rec, tc.err)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var resp models.APIResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Success {
				t.Fatal("error responses must not report success")
			}
			if resp.Error == nil || resp.Error.Code != tc.wantCode {
				t.Fatalf("code = %#v, want %s", resp.Error, tc.wantCode)
			}
		})
	}
}
