package types

import (
	"fmt"
	"strings"

	"github.com/vinedb/vine/sql"
)

type stringType struct {
	tag       sql.ValueTag
	name      string
	maxLength int64
}

func (t stringType) Tag() sql.ValueTag { return t.tag }
func (t stringType) String() string {
	if t.tag == sql.TagText {
		return t.name
	}
	return fmt.Sprintf("%s(%d)", t.name, t.maxLength)
}
func (t stringType) Zero() interface{} { return "" }
func (t stringType) Promote() sql.Type { return Text }

func (t stringType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := asString(v)
	if !ok {
		return nil, sql.ErrTypeMismatch.New(v, v, t.String())
	}
	if t.maxLength > 0 && int64(len(s)) > t.maxLength {
		return nil, sql.ErrOverflow.New(v, t.String())
	}
	return s, nil
}

func asString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	case fmt.Stringer:
		return s.String(), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

func (t stringType) Compare(a, b interface{}) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}
	as, _ := asString(a)
	bs, _ := asString(b)
	// Default collation is case-insensitive (§4.1 LIKE binding rule applies
	// the same default collation to ordering).
	return strings.Compare(strings.ToLower(as), strings.ToLower(bs)), nil
}

// CreateStringWithDefaults returns a VARCHAR/CHAR/TEXT-family type sized to
// maxLen.
func CreateStringWithDefaults(tag sql.ValueTag, maxLen int64) sql.Type {
	switch tag {
	case sql.TagChar:
		return stringType{tag: sql.TagChar, name: "CHAR", maxLength: maxLen}
	case sql.TagText:
		return Text
	default:
		return stringType{tag: sql.TagVarChar, name: "VARCHAR", maxLength: maxLen}
	}
}

var (
	LongText sql.Type = stringType{tag: sql.TagText, name: "TEXT"}
	Text     sql.Type = stringType{tag: sql.TagText, name: "TEXT"}
)

// MustCreateVarChar returns VARCHAR(length).
func MustCreateVarChar(length int64) sql.Type {
	return stringType{tag: sql.TagVarChar, name: "VARCHAR", maxLength: length}
}

// MustCreateChar returns CHAR(length).
func MustCreateChar(length int64) sql.Type {
	return stringType{tag: sql.TagChar, name: "CHAR", maxLength: length}
}
