package repository

import (
	"strings"

	"github.com/google/uuid"
)

// FilterBuilder composes optional predicates into a single WHERE clause.
// Absent values contribute nothing, so a builder with no predicates yields
// an empty clause.
type FilterBuilder struct {
	preds []string
	args  []any
}

// NewFilter returns an empty builder.
func NewFilter() *FilterBuilder { return &FilterBuilder{} }

// EqUUID adds "column = ?" when v is non-nil.
func (f *FilterBuilder) EqUUID(column string, v *uuid.UUID) *FilterBuilder {
	if v == nil {
		return f
	}
	return f.Where(column+" = ?", *v)
}

// Where adds a raw predicate.  Predicates containing OR must be wrapped
// in parentheses by the caller.
func (f *FilterBuilder) Where(pred string, args ...any) *FilterBuilder {
	f.preds = append(f.preds, pred)
	f.args = append(f.args, args...)
	return f
}

// Empty reports whether no predicate was added.
func (f *FilterBuilder) Empty() bool { return len(f.preds) == 0 }

// Build returns " WHERE a AND b" (with a leading space) and its arguments,
// or "" and nil when empty.
func (f *FilterBuilder) Build() (string, []any) {
	if f.Empty() {
		return "", nil
	}
	return " WHERE " + strings.Join(f.preds, " AND "), f.args
}
