package types

import (
	"bytes"

	"github.com/vinedb/vine/sql"
)

type blobType struct {
	maxLength int64
}

var Blob sql.Type = blobType{}

// CreateBinary returns a BLOB-family type sized to maxLen.
func CreateBinary(maxLen int64) sql.Type {
	return blobType{maxLength: maxLen}
}

func (blobType) Tag() sql.ValueTag { return sql.TagBlob }
func (blobType) String() string    { return "BLOB" }
func (blobType) Zero() interface{} { return []byte{} }
func (t blobType) Promote() sql.Type { return t }

func (t blobType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	var b []byte
	switch x := v.(type) {
	case []byte:
		b = x
	case string:
		b = []byte(x)
	default:
		return nil, sql.ErrTypeMismatch.New(v, v, "BLOB")
	}
	if t.maxLength > 0 && int64(len(b)) > t.maxLength {
		return nil, sql.ErrOverflow.New(v, "BLOB")
	}
	return b, nil
}

func (blobType) Compare(a, b interface{}) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}
	return bytes.Compare(a.([]byte), b.([]byte)), nil
}
