package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quillsign/quillsign/internal/esign/domain"
	"github.com/quillsign/quillsign/internal/esign/service"
	"github.com/quillsign/quillsign/internal/models"
	"github.com/quillsign/quillsign/pkg/fp"
)

// DocumentRepository persists document aggregates in Oracle. Signers and
// fields are owned rows of the document and always travel with it: every
// write touches all three tables in one transaction.
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

var _ service.DocumentStore = (*DocumentRepository)(nil)

// CreateAggregate inserts a new document together with its signers and fields
func (r *DocumentRepository) CreateAggregate(ctx context.Context, a domain.Aggregate) fp.Result[domain.Aggregate] {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fp.Failure[domain.Aggregate](err)
	}
	defer tx.Rollback()

	if err := insertDocument(ctx, tx, a.Document); err != nil {
		return fp.Failure[domain.Aggregate](err)
	}
	if err := insertSigners(ctx, tx, a.Signers); err != nil {
		return fp.Failure[domain.Aggregate](err)
	}
	if err := insertFields(ctx, tx, a.Fields); err != nil {
		return fp.Failure[domain.Aggregate](err)
	}

	if err := tx.Commit(); err != nil {
		return fp.Failure[domain.Aggregate](err)
	}

	return fp.Success(a)
}

// LoadAggregate retrieves a document with its signers and fields
func (r *DocumentRepository) LoadAggregate(ctx context.Context, tenantID string, id domain.DocumentID) fp.Result[domain.Aggregate] {
	query := `
		SELECT id, tenant_id, title, description, author_id, status, doc_type,
			doc_key, sequential_signing, enable_watermark, watermark_text,
			file_url, extensions, extensions_version, version, prepared_at,
			sent_at, viewed_at, signed_at, declined_at, expires_at
		FROM qs_documents
		WHERE tenant_id = :1 AND id = :2`

	row := r.db.QueryRowContext(ctx, query, tenantID, uuid.UUID(id).String())
	docResult := scanDocument(row)
	if fp.IsFailure(docResult) {
		return fp.Failure[domain.Aggregate](fp.GetError(docResult))
	}

	signersResult := r.findSigners(ctx, id)
	if fp.IsFailure(signersResult) {
		return fp.Failure[domain.Aggregate](fp.GetError(signersResult))
	}

	fieldsResult := r.findFields(ctx, id)
	if fp.IsFailure(fieldsResult) {
		return fp.Failure[domain.Aggregate](fp.GetError(fieldsResult))
	}

	return fp.Success(domain.Aggregate{
		Document: fp.GetValue(docResult),
		Signers:  fp.GetValue(signersResult),
		Fields:   fp.GetValue(fieldsResult),
	})
}

// SaveAggregate writes an updated aggregate. The document row carries an
// optimistic version: the UPDATE matches the previous version and a miss on
// an existing row means a concurrent writer got there first, reported as
// domain.ErrConflict. Signer and field rows are replaced wholesale within
// the same transaction.
func (r *DocumentRepository) SaveAggregate(ctx context.Context, a domain.Aggregate) fp.Result[domain.Aggregate] {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fp.Failure[domain.Aggregate](err)
	}
	defer tx.Rollback()

	doc := a.Document
	extensions, err := marshalJSONColumn(mapOrNil(doc.Extensions), "extensions")
	if err != nil {
		return fp.Failure[domain.Aggregate](err)
	}

	query := `
		UPDATE qs_documents SET
			title = :1, description = :2, status = :3, doc_key = :4,
			sequential_signing = :5, enable_watermark = :6, watermark_text = :7,
			file_url = :8, extensions = :9, extensions_version = :10,
			version = :11, sent_at = :12, viewed_at = :13, signed_at = :14,
			declined_at = :15, expires_at = :16
		WHERE id = :17 AND tenant_id = :18 AND version = :19`

	result, err := tx.ExecContext(ctx, query,
		doc.Title,
		nullableString(doc.Description),
		string(doc.Status),
		nullableString(doc.Key),
		boolToInt(doc.SequentialSigning),
		boolToInt(doc.EnableWatermark),
		nullableStringPtr(doc.WatermarkText),
		nullableStringPtr(doc.FileURL),
		extensions,
		doc.ExtensionsVersion,
		doc.Version,
		nullableTime(doc.SentAt),
		nullableTime(doc.ViewedAt),
		nullableTime(doc.SignedAt),
		nullableTime(doc.DeclinedAt),
		nullableTime(doc.ExpiresAt),
		uuid.UUID(doc.ID).String(),
		doc.TenantID,
		doc.Version-1,
	)
	if err != nil {
		return fp.Failure[domain.Aggregate](err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fp.Failure[domain.Aggregate](err)
	}
	if rowsAffected == 0 {
		// Distinguish a missing row from a stale version
		var existing int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM qs_documents WHERE id = :1 AND tenant_id = :2`,
			uuid.UUID(doc.ID).String(), doc.TenantID,
		).Scan(&existing)
		if err != nil {
			return fp.Failure[domain.Aggregate](err)
		}
		if existing == 0 {
			return fp.Failure[domain.Aggregate](sql.ErrNoRows)
		}
		return fp.Failure[domain.Aggregate](fmt.Errorf("save document %s: %w", doc.ID, domain.ErrConflict))
	}

	docID := uuid.UUID(doc.ID).String()
	if _, err := tx.ExecContext(ctx, `DELETE FROM qs_signers WHERE document_id = :1`, docID); err != nil {
		return fp.Failure[domain.Aggregate](err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM qs_fields WHERE document_id = :1`, docID); err != nil {
		return fp.Failure[domain.Aggregate](err)
	}
	if err := insertSigners(ctx, tx, a.Signers); err != nil {
		return fp.Failure[domain.Aggregate](err)
	}
	if err := insertFields(ctx, tx, a.Fields); err != nil {
		return fp.Failure[domain.Aggregate](err)
	}

	if err := tx.Commit(); err != nil {
		return fp.Failure[domain.Aggregate](err)
	}

	return fp.Success(a)
}

// DeleteAggregate removes a document and everything it owns
func (r *DocumentRepository) DeleteAggregate(ctx context.Context, tenantID string, id domain.DocumentID) fp.Result[domain.DocumentID] {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fp.Failure[domain.DocumentID](err)
	}
	defer tx.Rollback()

	docID := uuid.UUID(id).String()
	if _, err := tx.ExecContext(ctx, `DELETE FROM qs_fields WHERE document_id = :1`, docID); err != nil {
		return fp.Failure[domain.DocumentID](err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM qs_signers WHERE document_id = :1`, docID); err != nil {
		return fp.Failure[domain.DocumentID](err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM qs_documents WHERE id = :1 AND tenant_id = :2`, docID, tenantID)
	if err != nil {
		return fp.Failure[domain.DocumentID](err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fp.Failure[domain.DocumentID](err)
	}
	if rowsAffected == 0 {
		return fp.Failure[domain.DocumentID](sql.ErrNoRows)
	}

	if err := tx.Commit(); err != nil {
		return fp.Failure[domain.DocumentID](err)
	}

	return fp.Success(id)
}

// ListByTenant retrieves one page of a tenant's documents, newest first by
// default. Search narrows by title; sorting is restricted to a whitelist.
func (r *DocumentRepository) ListByTenant(ctx context.Context, tenantID string, params models.PaginationParams, search models.SearchParams) fp.Result[service.DocumentPage] {
	countQuery := `SELECT COUNT(*) FROM qs_documents WHERE tenant_id = :1`
	countArgs := []any{tenantID}
	if search.Query != "" {
		countQuery += " AND UPPER(title) LIKE UPPER(:2)"
		countArgs = append(countArgs, "%"+search.Query+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return fp.Failure[service.DocumentPage](fmt.Errorf("count documents: %w", err))
	}

	query := `
		SELECT id, tenant_id, title, description, author_id, status, doc_type,
			doc_key, sequential_signing, enable_watermark, watermark_text,
			file_url, extensions, extensions_version, version, prepared_at,
			sent_at, viewed_at, signed_at, declined_at, expires_at
		FROM qs_documents
		WHERE tenant_id = :1`

	args := []any{tenantID}
	argIndex := 2
	if search.Query != "" {
		query += fmt.Sprintf(" AND UPPER(title) LIKE UPPER(:%d)", argIndex)
		args = append(args, "%"+search.Query+"%")
		argIndex++
	}

	sortBy, sortDir := documentSortClause(search.SortBy, search.SortDir)
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortDir)
	query += fmt.Sprintf(" OFFSET :%d ROWS FETCH NEXT :%d ROWS ONLY", argIndex, argIndex+1)
	args = append(args, params.Offset(), params.Limit())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fp.Failure[service.DocumentPage](err)
	}
	defer rows.Close()

	docs := MapRows(rows, func(rows *sql.Rows) fp.Result[domain.Document] {
		return scanDocument(rows)
	})
	if fp.IsFailure(docs) {
		return fp.Failure[service.DocumentPage](fp.GetError(docs))
	}
	return fp.Success(service.DocumentPage{Documents: fp.GetValue(docs), Total: total})
}

// documentSortClause whitelists sortable columns; anything else falls back
// to newest-first
func documentSortClause(sortBy, sortDir string) (string, string) {
	column := "prepared_at"
	switch sortBy {
	case "title":
		column = "title"
	case "status":
		column = "status"
	case "expires_at":
		column = "expires_at"
	case "prepared_at", "":
	default:
	}
	dir := "DESC"
	if strings.EqualFold(sortDir, "asc") {
		dir = "ASC"
	}
	return column, dir
}

// ListExpiredCandidates retrieves references to live documents whose
// deadline has passed, for the expiry sweep
func (r *DocumentRepository) ListExpiredCandidates(ctx context.Context, now time.Time) fp.Result[[]service.DocumentRef] {
	query := `
		SELECT tenant_id, id
		FROM qs_documents
		WHERE expires_at IS NOT NULL AND expires_at < :1
			AND status NOT IN ('SIGNED', 'DECLINED', 'EXPIRED')`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return fp.Failure[[]service.DocumentRef](err)
	}
	defer rows.Close()

	return MapRows(rows, func(rows *sql.Rows) fp.Result[service.DocumentRef] {
		var ref service.DocumentRef
		var idStr string
		if err := rows.Scan(&ref.TenantID, &idStr); err != nil {
			return fp.Failure[service.DocumentRef](err)
		}
		id, err := parseUUID(idStr, "document id")
		if err != nil {
			return fp.Failure[service.DocumentRef](err)
		}
		ref.DocumentID = domain.DocumentID(id)
		return fp.Success(ref)
	})
}

func (r *DocumentRepository) findSigners(ctx context.Context, documentID domain.DocumentID) fp.Result[[]domain.Signer] {
	query := `
		SELECT id, document_id, email, name, role, sign_order, status,
			access_code, color, invited_at, viewed_at, completed_at,
			notified_at, declined_at, decline_reason, created_at
		FROM qs_signers
		WHERE document_id = :1
		ORDER BY sign_order`

	rows, err := r.db.QueryContext(ctx, query, uuid.UUID(documentID).String())
	if err != nil {
		return fp.Failure[[]domain.Signer](err)
	}
	defer rows.Close()

	return MapRows(rows, func(rows *sql.Rows) fp.Result[domain.Signer] {
		return scanSigner(rows)
	})
}

func (r *DocumentRepository) findFields(ctx context.Context, documentID domain.DocumentID) fp.Result[[]domain.DocumentField] {
	query := `
		SELECT id, document_id, field_type, label, required, page,
			x_pos, y_pos, width, height, field_value, signer_id,
			style, rule, conditional, options, created_at, updated_at
		FROM qs_fields
		WHERE document_id = :1
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, uuid.UUID(documentID).String())
	if err != nil {
		return fp.Failure[[]domain.DocumentField](err)
	}
	defer rows.Close()

	return MapRows(rows, func(rows *sql.Rows) fp.Result[domain.DocumentField] {
		return scanField(rows)
	})
}

func insertDocument(ctx context.Context, tx *sql.Tx, doc domain.Document) error {
	extensions, err := marshalJSONColumn(mapOrNil(doc.Extensions), "extensions")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO qs_documents (
			id, tenant_id, title, description, author_id, status, doc_type,
			doc_key, sequential_signing, enable_watermark, watermark_text,
			file_url, extensions, extensions_version, version, prepared_at,
			sent_at, viewed_at, signed_at, declined_at, expires_at
		) VALUES (
			:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11,
			:12, :13, :14, :15, :16, :17, :18, :19, :20, :21
		)`

	_, err = tx.ExecContext(ctx, query,
		uuid.UUID(doc.ID).String(),
		doc.TenantID,
		doc.Title,
		nullableString(doc.Description),
		uuid.UUID(doc.AuthorID).String(),
		string(doc.Status),
		string(doc.Type),
		nullableString(doc.Key),
		boolToInt(doc.SequentialSigning),
		boolToInt(doc.EnableWatermark),
		nullableStringPtr(doc.WatermarkText),
		nullableStringPtr(doc.FileURL),
		extensions,
		doc.ExtensionsVersion,
		doc.Version,
		doc.PreparedAt,
		nullableTime(doc.SentAt),
		nullableTime(doc.ViewedAt),
		nullableTime(doc.SignedAt),
		nullableTime(doc.DeclinedAt),
		nullableTime(doc.ExpiresAt),
	)
	return err
}

func insertSigners(ctx context.Context, tx *sql.Tx, signers []domain.Signer) error {
	query := `
		INSERT INTO qs_signers (
			id, document_id, email, name, role, sign_order, status,
			access_code, color, invited_at, viewed_at, completed_at,
			notified_at, declined_at, decline_reason, created_at
		) VALUES (
			:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12, :13, :14, :15, :16
		)`

	for _, s := range signers {
		_, err := tx.ExecContext(ctx, query,
			uuid.UUID(s.ID).String(),
			uuid.UUID(s.DocumentID).String(),
			s.Email,
			nullableString(s.Name),
			nullableString(s.Role),
			s.Order,
			string(s.Status),
			nullableStringPtr(s.AccessCode),
			nullableStringPtr(s.Color),
			nullableTime(s.InvitedAt),
			nullableTime(s.ViewedAt),
			nullableTime(s.CompletedAt),
			nullableTime(s.NotifiedAt),
			nullableTime(s.DeclinedAt),
			nullableStringPtr(s.DeclineReason),
			s.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertFields(ctx context.Context, tx *sql.Tx, fields []domain.DocumentField) error {
	query := `
		INSERT INTO qs_fields (
			id, document_id, field_type, label, required, page,
			x_pos, y_pos, width, height, field_value, signer_id,
			style, rule, conditional, options, created_at, updated_at
		) VALUES (
			:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12,
			:13, :14, :15, :16, :17, :18
		)`

	for _, f := range fields {
		style, err := marshalJSONColumn(ptrOrNil(f.Style), "style")
		if err != nil {
			return err
		}
		rule, err := marshalJSONColumn(ptrOrNil(f.Rule), "rule")
		if err != nil {
			return err
		}
		conditional, err := marshalJSONColumn(ptrOrNil(f.Conditional), "conditional")
		if err != nil {
			return err
		}
		options, err := marshalJSONColumn(sliceOrNil(f.Options), "options")
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, query,
			uuid.UUID(f.ID).String(),
			uuid.UUID(f.DocumentID).String(),
			string(f.Type),
			f.Label,
			boolToInt(f.Required),
			f.Geometry.Page,
			f.Geometry.X,
			f.Geometry.Y,
			f.Geometry.Width,
			f.Geometry.Height,
			nullableStringPtr(f.Value),
			nullableUUID(f.SignerID),
			style,
			rule,
			conditional,
			options,
			f.CreatedAt,
			nullableTime(f.UpdatedAt),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanDocument(s Scanner) fp.Result[domain.Document] {
	var doc domain.Document
	var idStr, authorIDStr, status, docType string
	var description, docKey, watermarkText, fileURL, extensions sql.NullString
	var sequentialSigning, enableWatermark int
	var sentAt, viewedAt, signedAt, declinedAt, expiresAt sql.NullTime

	err := s.Scan(
		&idStr, &doc.TenantID, &doc.Title, &description, &authorIDStr,
		&status, &docType, &docKey, &sequentialSigning, &enableWatermark,
		&watermarkText, &fileURL, &extensions, &doc.ExtensionsVersion,
		&doc.Version, &doc.PreparedAt, &sentAt, &viewedAt, &signedAt,
		&declinedAt, &expiresAt,
	)
	if err != nil {
		return fp.Failure[domain.Document](err)
	}

	id, err := parseUUID(idStr, "document id")
	if err != nil {
		return fp.Failure[domain.Document](err)
	}
	doc.ID = domain.DocumentID(id)

	authorID, err := parseUUID(authorIDStr, "author_id")
	if err != nil {
		return fp.Failure[domain.Document](err)
	}
	doc.AuthorID = domain.UserID(authorID)

	doc.Status = domain.DocumentStatus(status)
	doc.Type = domain.DocumentType(docType)
	doc.Description = stringFromNull(description)
	doc.Key = stringFromNull(docKey)
	doc.SequentialSigning = intToBool(sequentialSigning)
	doc.EnableWatermark = intToBool(enableWatermark)
	doc.WatermarkText = stringPtrFromNull(watermarkText)
	doc.FileURL = stringPtrFromNull(fileURL)
	doc.SentAt = timeFromNull(sentAt)
	doc.ViewedAt = timeFromNull(viewedAt)
	doc.SignedAt = timeFromNull(signedAt)
	doc.DeclinedAt = timeFromNull(declinedAt)
	doc.ExpiresAt = timeFromNull(expiresAt)

	if err := unmarshalJSONColumn(extensions, "extensions", &doc.Extensions); err != nil {
		return fp.Failure[domain.Document](err)
	}

	return fp.Success(doc)
}

func scanSigner(s Scanner) fp.Result[domain.Signer] {
	var signer domain.Signer
	var idStr, documentIDStr, status string
	var name, role, accessCode, color, declineReason sql.NullString
	var invitedAt, viewedAt, completedAt, notifiedAt, declinedAt sql.NullTime

	err := s.Scan(
		&idStr, &documentIDStr, &signer.Email, &name, &role, &signer.Order,
		&status, &accessCode, &color, &invitedAt, &viewedAt, &completedAt,
		&notifiedAt, &declinedAt, &declineReason, &signer.CreatedAt,
	)
	if err != nil {
		return fp.Failure[domain.Signer](err)
	}

	id, err := parseUUID(idStr, "signer id")
	if err != nil {
		return fp.Failure[domain.Signer](err)
	}
	signer.ID = domain.SignerID(id)

	documentID, err := parseUUID(documentIDStr, "document_id")
	if err != nil {
		return fp.Failure[domain.Signer](err)
	}
	signer.DocumentID = domain.DocumentID(documentID)

	signer.Status = domain.SignerStatus(status)
	signer.Name = stringFromNull(name)
	signer.Role = stringFromNull(role)
	signer.AccessCode = stringPtrFromNull(accessCode)
	signer.Color = stringPtrFromNull(color)
	signer.InvitedAt = timeFromNull(invitedAt)
	signer.ViewedAt = timeFromNull(viewedAt)
	signer.CompletedAt = timeFromNull(completedAt)
	signer.NotifiedAt = timeFromNull(notifiedAt)
	signer.DeclinedAt = timeFromNull(declinedAt)
	signer.DeclineReason = stringPtrFromNull(declineReason)

	return fp.Success(signer)
}

func scanField(s Scanner) fp.Result[domain.DocumentField] {
	var field domain.DocumentField
	var idStr, documentIDStr, fieldType string
	var fieldValue, signerID, style, rule, conditional, options sql.NullString
	var required int
	var updatedAt sql.NullTime

	err := s.Scan(
		&idStr, &documentIDStr, &fieldType, &field.Label, &required,
		&field.Geometry.Page, &field.Geometry.X, &field.Geometry.Y,
		&field.Geometry.Width, &field.Geometry.Height, &fieldValue,
		&signerID, &style, &rule, &conditional, &options,
		&field.CreatedAt, &updatedAt,
	)
	if err != nil {
		return fp.Failure[domain.DocumentField](err)
	}

	id, err := parseUUID(idStr, "field id")
	if err != nil {
		return fp.Failure[domain.DocumentField](err)
	}
	field.ID = domain.FieldID(id)

	documentID, err := parseUUID(documentIDStr, "document_id")
	if err != nil {
		return fp.Failure[domain.DocumentField](err)
	}
	field.DocumentID = domain.DocumentID(documentID)

	field.Type = domain.FieldType(fieldType)
	field.Required = intToBool(required)
	field.Value = stringPtrFromNull(fieldValue)
	field.UpdatedAt = timeFromNull(updatedAt)

	if signerID.Valid {
		sID, err := parseUUID(signerID.String, "signer_id")
		if err != nil {
			return fp.Failure[domain.DocumentField](err)
		}
		field.SignerID = (*domain.SignerID)(&sID)
	}

	if style.Valid {
		var fs domain.FieldStyle
		if err := unmarshalJSONColumn(style, "style", &fs); err != nil {
			return fp.Failure[domain.DocumentField](err)
		}
		field.Style = &fs
	}
	if rule.Valid {
		var vr domain.ValidationRule
		if err := unmarshalJSONColumn(rule, "rule", &vr); err != nil {
			return fp.Failure[domain.DocumentField](err)
		}
		field.Rule = &vr
	}
	if conditional.Valid {
		var cl domain.ConditionalLogic
		if err := unmarshalJSONColumn(conditional, "conditional", &cl); err != nil {
			return fp.Failure[domain.DocumentField](err)
		}
		field.Conditional = &cl
	}
	if err := unmarshalJSONColumn(options, "options", &field.Options); err != nil {
		return fp.Failure[domain.DocumentField](err)
	}

	return fp.Success(field)
}

// mapOrNil normalizes an empty map to nil so it stores as NULL
func mapOrNil(m map[string]string) interface{} {
	if len(m) == 0 {
		return nil
	}
	return m
}

// ptrOrNil converts a typed nil pointer to an untyped nil
func ptrOrNil[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return p
}

// sliceOrNil normalizes an empty slice to nil so it stores as NULL
func sliceOrNil(s []string) interface{} {
	if len(s) == 0 {
		return nil
	}
	return s
}
