package sql

import "strings"

// Column describes one column of a Schema (§3).
type Column struct {
	Name          string
	Source        string // table (or derived-table alias) this column belongs to
	Type          Type
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
	Default       Expression // nil if no default; evaluated against a zero-arity row
}

// Expression is declared here (rather than imported from package
// expression) to avoid an import cycle between sql and sql/expression;
// package expression's Expression type satisfies this interface.
type Expression interface {
	Eval(ctx *Context, row Row) (interface{}, error)
	Type() Type
	Resolved() bool
	String() string
	Children() []Expression
	WithChildren(children ...Expression) (Expression, error)
}

// Schema is an ordered list of column definitions (§3). Schemas are
// immutable once built; DDL replaces a table's schema atomically in the
// catalog rather than mutating one in place.
type Schema []*Column

// IndexOf returns the ordinal of the column named name (case-insensitive),
// optionally qualified by source table. Returns -1 if not found.
func (s Schema) IndexOf(name, source string) int {
	name = strings.ToLower(name)
	for i, c := range s {
		if strings.ToLower(c.Name) == name {
			if source == "" || strings.EqualFold(c.Source, source) {
				return i
			}
		}
	}
	return -1
}

// IndexOfFlat looks first for a column literally named T_c (table + "_" +
// column, case-insensitively), falling back to IndexOf(column, table)
// (§4.1 binding rules).
func (s Schema) IndexOfFlat(table, column string) (int, error) {
	flat := strings.ToLower(table + "_" + column)
	for i, c := range s {
		if strings.ToLower(c.Name) == flat {
			return i, nil
		}
	}
	idx := s.IndexOf(column, table)
	if idx == -1 {
		if table != "" {
			return -1, ErrTableColumnNotFound.New(table, column)
		}
		return -1, ErrColumnNotFound.New(column)
	}
	return idx, nil
}

// Contains reports whether name exists, case-insensitively, anywhere in s.
func (s Schema) Contains(name string) bool {
	return s.IndexOf(name, "") != -1
}

// CheckRow validates that row's arity matches the schema, per the
// "operator never emits a row whose arity disagrees with its declared
// schema" invariant in §3.
func (s Schema) CheckRow(row Row) error {
	if len(row) != len(s) {
		return ErrInvariantBreach.New("row has arity " +
			itoa(len(row)) + ", schema declares " + itoa(len(s)))
	}
	return nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// WithSource returns a copy of the schema with every column's Source set to
// the given name, used by the Alias operator to rebind a schema under a new
// table name (§4.2).
func (s Schema) WithSource(source string) Schema {
	out := make(Schema, len(s))
	for i, c := range s {
		cp := *c
		cp.Source = source
		out[i] = &cp
	}
	return out
}

// Concat appends other's columns after s's, used to build join schemas;
// column names and sources are kept unchanged.
func (s Schema) Concat(other Schema) Schema {
	out := make(Schema, 0, len(s)+len(other))
	out = append(out, s...)
	out = append(out, other...)
	return out
}
