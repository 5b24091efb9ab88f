package types

import (
	"github.com/shopspring/decimal"

	"github.com/vinedb/vine/sql"
)

// decimalType backs DECIMAL with github.com/shopspring/decimal, used both
// for the column type and for the wide fixed-point SUM/AVG aggregate state
// described in §3.
type decimalType struct {
	precision, scale int
}

// Decimal is the default DECIMAL(10,0) type; MustCreateDecimal builds a
// specific precision/scale.
var Decimal sql.Type = decimalType{precision: 10, scale: 0}

// MustCreateDecimal returns a DECIMAL(precision,scale) type.
func MustCreateDecimal(precision, scale int) sql.Type {
	return decimalType{precision: precision, scale: scale}
}

func (t decimalType) Tag() sql.ValueTag { return sql.TagDecimal }
func (t decimalType) String() string {
	return "DECIMAL"
}
func (t decimalType) Zero() interface{} { return decimal.Zero }
func (t decimalType) Promote() sql.Type { return t }

func (t decimalType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case decimal.Decimal:
		return n.Round(int32(t.scale)), nil
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return nil, sql.ErrTypeMismatch.New(v, v, t.String())
		}
		return d.Round(int32(t.scale)), nil
	case int64:
		return decimal.NewFromInt(n).Round(int32(t.scale)), nil
	case int:
		return decimal.NewFromInt(int64(n)).Round(int32(t.scale)), nil
	case float64:
		return decimal.NewFromFloat(n).Round(int32(t.scale)), nil
	case float32:
		return decimal.NewFromFloat32(n).Round(int32(t.scale)), nil
	default:
		return nil, sql.ErrTypeMismatch.New(v, v, t.String())
	}
}

func (t decimalType) Compare(a, b interface{}) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}
	ad, ok := a.(decimal.Decimal)
	if !ok {
		return 0, sql.ErrTypeMismatch.New(a, a, t.String())
	}
	bd, ok := b.(decimal.Decimal)
	if !ok {
		return 0, sql.ErrTypeMismatch.New(b, b, t.String())
	}
	return ad.Cmp(bd), nil
}
