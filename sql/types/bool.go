package types

import "github.com/vinedb/vine/sql"

type boolType struct{}

// Boolean is MySQL's TINYINT(1)-backed BOOL type.
var Boolean sql.Type = boolType{}

func (boolType) Tag() sql.ValueTag { return sql.TagBool }
func (boolType) String() string    { return "TINYINT(1)" }
func (boolType) Zero() interface{} { return false }
func (boolType) Promote() sql.Type { return boolType{} }

func (boolType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case int:
		return b != 0, nil
	case float64:
		return b != 0, nil
	case string:
		return b != "" && b != "0", nil
	default:
		return nil, sql.ErrTypeMismatch.New(v, v, "BOOL")
	}
}

func (boolType) Compare(a, b interface{}) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}
	ab, _ := a.(bool)
	bb, _ := b.(bool)
	switch {
	case ab == bb:
		return 0, nil
	case !ab && bb:
		return -1, nil
	default:
		return 1, nil
	}
}
