package expression

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

// Not inverts a Bool; NOT NULL is NULL (§4.1).
type Not struct {
	UnaryExpression
}

func NewNot(child sql.Expression) *Not { return &Not{UnaryExpression{Child: child}} }

func (n *Not) Type() sql.Type { return types.Boolean }
func (n *Not) String() string { return "NOT " + n.Child.String() }
func (n *Not) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New("Not takes 1 child")
	}
	return NewNot(children[0]), nil
}
func (n *Not) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	v, err := n.Child.Eval(ctx, row)
	if err != nil || v == nil {
		return nil, err
	}
	b, ok := v.(bool)
	if !ok {
		return nil, sql.ErrNonBooleanPredicate.New(n.Child.String())
	}
	return !b, nil
}

// IsNull tests for SQL NULL; unlike Comparison's EQ, this never itself
// yields NULL (§4.1: IS NULL/IS NOT NULL are the only way to observe
// nullity directly).
type IsNull struct {
	UnaryExpression
	Not bool
}

func NewIsNull(child sql.Expression) *IsNull    { return &IsNull{UnaryExpression{Child: child}, false} }
func NewIsNotNull(child sql.Expression) *IsNull { return &IsNull{UnaryExpression{Child: child}, true} }

func (e *IsNull) Type() sql.Type { return types.Boolean }
func (e *IsNull) String() string {
	if e.Not {
		return e.Child.String() + " IS NOT NULL"
	}
	return e.Child.String() + " IS NULL"
}
func (e *IsNull) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New("IsNull takes 1 child")
	}
	return &IsNull{UnaryExpression{Child: children[0]}, e.Not}, nil
}
func (e *IsNull) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	v, err := e.Child.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	isNull := v == nil
	if e.Not {
		return !isNull, nil
	}
	return isNull, nil
}
