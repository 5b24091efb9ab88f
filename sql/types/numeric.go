// Package types provides the concrete sql.Type implementations for every
// value tag in §3's Value union.
package types

import (
	"fmt"
	"math"

	"github.com/vinedb/vine/sql"
)

type numberType struct {
	tag    sql.ValueTag
	name   string
	signed bool
	bits   int
	float  bool
}

func (t numberType) Tag() sql.ValueTag { return t.tag }
func (t numberType) String() string    { return t.name }
func (t numberType) Zero() interface{} {
	if t.float {
		if t.bits == 32 {
			return float32(0)
		}
		return float64(0)
	}
	return toIntRepr(t, 0)
}

// Promote returns the widest type in this type's numeric family: integers
// promote to BigInt, floats to Double (§4.1).
func (t numberType) Promote() sql.Type {
	if t.float {
		return Float64
	}
	return Int64
}

func (t numberType) Compare(a, b interface{}) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}
	if t.float {
		af, bf := toFloat(a), toFloat(b)
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	ai, bi := toInt64Repr(a), toInt64Repr(b)
	switch {
	case ai < bi:
		return -1, nil
	case ai > bi:
		return 1, nil
	default:
		return 0, nil
	}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case int16:
		return float64(n)
	case int8:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func toInt64Repr(v interface{}) int64 {
	switch n := v.(type) {
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case float32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toIntRepr(t numberType, i int64) interface{} {
	switch t.bits {
	case 8:
		return int8(i)
	case 16:
		return int16(i)
	case 32:
		return int32(i)
	default:
		return i
	}
}

// Convert implements §4.1's "overflow is reported as an error, never
// silently wrapping" rule for integer narrowing conversions.
func (t numberType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if t.float {
		f, err := asFloat(v)
		if err != nil {
			return nil, err
		}
		if t.bits == 32 {
			return float32(f), nil
		}
		return f, nil
	}
	i, err := asInt64(v)
	if err != nil {
		return nil, err
	}
	if t.bits < 64 {
		lo, hi := intRange(t)
		if i < lo || i > hi {
			return nil, sql.ErrOverflow.New(v, t.String())
		}
	}
	return toIntRepr(t, i), nil
}

func intRange(t numberType) (int64, int64) {
	if t.signed {
		switch t.bits {
		case 8:
			return math.MinInt8, math.MaxInt8
		case 16:
			return math.MinInt16, math.MaxInt16
		case 32:
			return math.MinInt32, math.MaxInt32
		}
	} else {
		switch t.bits {
		case 8:
			return 0, math.MaxUint8
		case 16:
			return 0, math.MaxUint16
		case 32:
			return 0, math.MaxUint32
		}
	}
	return math.MinInt64, math.MaxInt64
}

func asInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, sql.ErrOverflow.New(v, "BIGINT")
		}
		return int64(n), nil
	case float32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		var i int64
		_, err := fmt.Sscanf(n, "%d", &i)
		if err != nil {
			return 0, sql.ErrTypeMismatch.New(v, v, "INT")
		}
		return i, nil
	default:
		return 0, sql.ErrTypeMismatch.New(v, v, "INT")
	}
}

func asFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64, int32, int16, int8, int:
		i, _ := asInt64(v)
		return float64(i), nil
	case string:
		var f float64
		_, err := fmt.Sscanf(n, "%g", &f)
		if err != nil {
			return 0, sql.ErrTypeMismatch.New(v, v, "DOUBLE")
		}
		return f, nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, sql.ErrTypeMismatch.New(v, v, "DOUBLE")
	}
}

var (
	TinyInt  sql.Type = numberType{tag: sql.TagTinyInt, name: "TINYINT", signed: true, bits: 8}
	SmallInt sql.Type = numberType{tag: sql.TagSmallInt, name: "SMALLINT", signed: true, bits: 16}
	Int32    sql.Type = numberType{tag: sql.TagInt, name: "INT", signed: true, bits: 32}
	Int64    sql.Type = numberType{tag: sql.TagBigInt, name: "BIGINT", signed: true, bits: 64}
	Float32  sql.Type = numberType{tag: sql.TagFloat, name: "FLOAT", signed: true, bits: 32, float: true}
	Float64  sql.Type = numberType{tag: sql.TagDouble, name: "DOUBLE", signed: true, bits: 64, float: true}
)
