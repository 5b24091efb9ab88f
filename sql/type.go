package sql

// Type represents a SQL value's type: how it converts, compares, and
// reports its zero value. Concrete implementations live in package types;
// this package only needs the interface so expressions and schemas can be
// type-parametric without importing types (which would cycle).
type Type interface {
	// Tag returns the underlying value tag for this type (see ValueTag).
	Tag() ValueTag
	// Convert converts v into a value of this type, or returns an error
	// (ErrTypeMismatch, ErrOverflow) if the conversion is not possible.
	Convert(v interface{}) (interface{}, error)
	// Compare compares two values already of this type (or nil for SQL
	// NULL). It returns -1, 0, 1. Comparisons against nil follow SQL
	// ORDER BY semantics (NULL orders low); callers needing three-valued
	// equality semantics should check for nil before calling Compare.
	Compare(a, b interface{}) (int, error)
	// Zero returns the zero value for this type.
	Zero() interface{}
	// Promote returns the widest type in this type's promotion family,
	// used for arithmetic promotion (§4.1).
	Promote() Type
	// String returns the SQL type name, e.g. "BIGINT", "VARCHAR(255)".
	String() string
}

// ValueTag tags a dynamic value the way §3's Value union does: every Row
// slot is a plain Go value (nil, int64, float64, string, ...), but callers
// that need to discriminate ask the Type for its Tag() rather than doing a
// Go type switch on the value itself, since multiple Go types can share a
// tag (e.g. int8/int16/int32 all back TinyInt/SmallInt/Int depending on
// width).
type ValueTag int

const (
	Unknown ValueTag = iota
	TagNull
	TagTinyInt
	TagSmallInt
	TagInt
	TagBigInt
	TagFloat
	TagDouble
	TagDecimal
	TagBool
	TagChar
	TagVarChar
	TagText
	TagDate
	TagTime
	TagDateTime
	TagTimestamp
	TagJSON
	TagBlob
)
