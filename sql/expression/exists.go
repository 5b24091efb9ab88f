package expression

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

// Exists evaluates "EXISTS (subquery)": true iff the subquery produces at
// least one row. Unlike scalar Subquery.Eval, this never errors on multiple
// rows and never yields NULL (§4.1).
type Exists struct {
	Subquery *Subquery
	Not      bool
}

func NewExists(sub *Subquery) *Exists    { return &Exists{Subquery: sub} }
func NewNotExists(sub *Subquery) *Exists { return &Exists{Subquery: sub, Not: true} }

func (e *Exists) Type() sql.Type { return types.Boolean }
func (e *Exists) Resolved() bool { return e.Subquery.Resolved() }
func (e *Exists) Children() []sql.Expression {
	return []sql.Expression{e.Subquery}
}
func (e *Exists) String() string {
	if e.Not {
		return "NOT EXISTS (" + e.Subquery.String() + ")"
	}
	return "EXISTS (" + e.Subquery.String() + ")"
}
func (e *Exists) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New("Exists takes 1 child")
	}
	sub, ok := children[0].(*Subquery)
	if !ok {
		return nil, sql.ErrInvariantBreach.New("Exists' child must be a Subquery")
	}
	return &Exists{Subquery: sub, Not: e.Not}, nil
}

func (e *Exists) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	rows, err := e.Subquery.evalRows(ctx, row)
	if err != nil {
		return nil, err
	}
	exists := len(rows) > 0
	if e.Not {
		return !exists, nil
	}
	return exists, nil
}
