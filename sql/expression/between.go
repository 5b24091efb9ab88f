package expression

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

// Between is sugar for (val >= lower AND val <= upper), evaluated with
// Kleene AND: a NULL operand yields NULL unless the other bound's
// comparison is false, in which case the result is false (§4.1).
type Between struct {
	Val   sql.Expression
	Lower sql.Expression
	Upper sql.Expression
	Not   bool
}

func NewBetween(val, lower, upper sql.Expression) *Between {
	return &Between{Val: val, Lower: lower, Upper: upper}
}

func NewNotBetween(val, lower, upper sql.Expression) *Between {
	return &Between{Val: val, Lower: lower, Upper: upper, Not: true}
}

func (b *Between) Type() sql.Type { return types.Boolean }
func (b *Between) Resolved() bool {
	return b.Val.Resolved() && b.Lower.Resolved() && b.Upper.Resolved()
}
func (b *Between) IsNullable() bool { return true }
func (b *Between) Children() []sql.Expression {
	return []sql.Expression{b.Val, b.Lower, b.Upper}
}
func (b *Between) String() string {
	op := "BETWEEN"
	if b.Not {
		op = "NOT BETWEEN"
	}
	return b.Val.String() + " " + op + " " + b.Lower.String() + " AND " + b.Upper.String()
}
func (b *Between) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 3 {
		return nil, sql.ErrInvariantBreach.New("Between takes 3 children")
	}
	return &Between{Val: children[0], Lower: children[1], Upper: children[2], Not: b.Not}, nil
}

func (b *Between) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	lowerCmp := NewComparison(b.Val, b.Lower, GTE)
	upperCmp := NewComparison(b.Val, b.Upper, LTE)
	result, err := NewAnd(lowerCmp, upperCmp).Eval(ctx, row)
	if err != nil || result == nil || !b.Not {
		return result, err
	}
	return !result.(bool), nil
}
