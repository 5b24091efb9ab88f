package expression

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

// And implements Kleene three-valued AND: false dominates regardless of the
// other operand's nullity; otherwise NULL propagates; true AND true is true
// (§4.1).
type And struct {
	BinaryExpression
}

func NewAnd(left, right sql.Expression) *And { return &And{BinaryExpression{Left: left, Right: right}} }

func (a *And) Type() sql.Type { return types.Boolean }
func (a *And) String() string { return a.Left.String() + " AND " + a.Right.String() }
func (a *And) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("And takes 2 children")
	}
	return NewAnd(children[0], children[1]), nil
}

func (a *And) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	lv, err := a.Left.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if b, ok := lv.(bool); ok && !b {
		return false, nil
	}
	rv, err := a.Right.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if b, ok := rv.(bool); ok && !b {
		return false, nil
	}
	if lv == nil || rv == nil {
		return nil, nil
	}
	return true, nil
}

// Or implements Kleene three-valued OR: true dominates regardless of the
// other operand's nullity.
type Or struct {
	BinaryExpression
}

func NewOr(left, right sql.Expression) *Or { return &Or{BinaryExpression{Left: left, Right: right}} }

func (o *Or) Type() sql.Type { return types.Boolean }
func (o *Or) String() string { return o.Left.String() + " OR " + o.Right.String() }
func (o *Or) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("Or takes 2 children")
	}
	return NewOr(children[0], children[1]), nil
}

func (o *Or) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	lv, err := o.Left.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if b, ok := lv.(bool); ok && b {
		return true, nil
	}
	rv, err := o.Right.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if b, ok := rv.(bool); ok && b {
		return true, nil
	}
	if lv == nil || rv == nil {
		return nil, nil
	}
	return false, nil
}
