package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quillsign/quillsign/pkg/fp"
)

// ═══════════════════════════════════════════════════════════════════════════
// SQL NULL HELPERS - Conversion between Go types and sql.Null* types
// ═══════════════════════════════════════════════════════════════════════════

// nullableString returns a sql.NullString for a string value.
// Empty strings result in a NULL database value.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableStringPtr returns a sql.NullString for an optional string.
func nullableStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullableTime returns a sql.NullTime for an optional timestamp.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullableUUID returns a sql.NullString for a UUID-based ID.
func nullableUUID[T ~[16]byte](id *T) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: uuid.UUID(*id).String(), Valid: true}
}

// ═══════════════════════════════════════════════════════════════════════════
// BOOLEAN HELPERS - Oracle doesn't have native BOOLEAN, uses NUMBER(1)
// ═══════════════════════════════════════════════════════════════════════════

// boolToInt converts a boolean to an int for Oracle NUMBER(1) storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts an Oracle NUMBER(1) to boolean.
func intToBool(i int) bool {
	return i == 1
}

// ═══════════════════════════════════════════════════════════════════════════
// JSON CLOB HELPERS - Optional structured columns stored as JSON text
// ═══════════════════════════════════════════════════════════════════════════

// marshalJSONColumn marshals a value to a sql.NullString JSON column.
// Nil values map to a NULL column.
func marshalJSONColumn(v interface{}, column string) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal %s: %w", column, err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// unmarshalJSONColumn decodes a JSON column into dest when non-NULL.
func unmarshalJSONColumn(ns sql.NullString, column string, dest interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(ns.String), dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", column, err)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// UUID PARSING HELPERS - Parse UUIDs with typed domain IDs
// ═══════════════════════════════════════════════════════════════════════════

// parseUUID parses a string to uuid.UUID with a descriptive error.
func parseUUID(s, fieldName string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("parse %s %q: %w", fieldName, s, err)
	}
	return id, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// NULLABLE VALUE EXTRACTORS - Extract values from sql.Null* types
// ═══════════════════════════════════════════════════════════════════════════

// stringFromNull extracts string from sql.NullString.
func stringFromNull(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringPtrFromNull extracts *string from sql.NullString.
func stringPtrFromNull(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

// timeFromNull extracts *time.Time from sql.NullTime.
func timeFromNull(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// SCANNER HELPERS - Reduce scanning boilerplate
// ═══════════════════════════════════════════════════════════════════════════

// Scanner is an interface implemented by both sql.Row and sql.Rows.
type Scanner interface {
	Scan(dest ...interface{}) error
}

// MapRows applies a scan function to each row and collects results.
func MapRows[T any](rows *sql.Rows, scanFn func(*sql.Rows) fp.Result[T]) fp.Result[[]T] {
	var items []T
	for rows.Next() {
		result := scanFn(rows)
		if fp.IsFailure(result) {
			return fp.Failure[[]T](fp.GetError(result))
		}
		items = append(items, fp.GetValue(result))
	}
	if err := rows.Err(); err != nil {
		return fp.Failure[[]T](err)
	}
	return fp.Success(items)
}
