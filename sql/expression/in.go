package expression

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

// InList tests left against a fixed list of value expressions. Per
// three-valued IN semantics: if left is NULL, result is NULL; if left
// matches any non-NULL element, result is true; if no match and any element
// is NULL, result is NULL; otherwise false (§4.1).
type InList struct {
	Left  sql.Expression
	List  []sql.Expression
	Not   bool
}

func NewInList(left sql.Expression, list []sql.Expression) *InList {
	return &InList{Left: left, List: list}
}

func NewNotInList(left sql.Expression, list []sql.Expression) *InList {
	return &InList{Left: left, List: list, Not: true}
}

func (i *InList) Type() sql.Type   { return types.Boolean }
func (i *InList) Resolved() bool {
	if !i.Left.Resolved() {
		return false
	}
	for _, e := range i.List {
		if !e.Resolved() {
			return false
		}
	}
	return true
}
func (i *InList) Children() []sql.Expression {
	return append([]sql.Expression{i.Left}, i.List...)
}
func (i *InList) String() string {
	s := i.Left.String()
	if i.Not {
		s += " NOT IN ("
	} else {
		s += " IN ("
	}
	for n, e := range i.List {
		if n > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}
func (i *InList) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) < 1 {
		return nil, sql.ErrInvariantBreach.New("InList takes at least 1 child")
	}
	return &InList{Left: children[0], List: children[1:], Not: i.Not}, nil
}

func (i *InList) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	lv, err := i.Left.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if lv == nil {
		return nil, nil
	}
	sawNull := false
	for _, e := range i.List {
		rv, err := e.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		if rv == nil {
			sawNull = true
			continue
		}
		cmpType := comparisonType(i.Left.Type(), e.Type())
		lc, err := cmpType.Convert(lv)
		if err != nil {
			return nil, err
		}
		rc, err := cmpType.Convert(rv)
		if err != nil {
			return nil, err
		}
		cmp, err := cmpType.Compare(lc, rc)
		if err != nil {
			return nil, err
		}
		if cmp == 0 {
			if i.Not {
				return false, nil
			}
			return true, nil
		}
	}
	if sawNull {
		return nil, nil
	}
	return i.Not, nil
}

// InSubquery tests left against the set of values produced by a scalar-column
// subquery. Semantics mirror InList but the candidate set is materialized
// from the subquery's row iterator each evaluation (correlated subqueries
// re-materialize per outer row; see Subquery.EvalMulti for memoization by
// key).
type InSubquery struct {
	Left     sql.Expression
	Subquery *Subquery
	Not      bool
}

func NewInSubquery(left sql.Expression, sub *Subquery) *InSubquery {
	return &InSubquery{Left: left, Subquery: sub}
}

func NewNotInSubquery(left sql.Expression, sub *Subquery) *InSubquery {
	return &InSubquery{Left: left, Subquery: sub, Not: true}
}

func (i *InSubquery) Type() sql.Type { return types.Boolean }
func (i *InSubquery) Resolved() bool { return i.Left.Resolved() && i.Subquery.Resolved() }
func (i *InSubquery) Children() []sql.Expression {
	return []sql.Expression{i.Left, i.Subquery}
}
func (i *InSubquery) String() string {
	if i.Not {
		return i.Left.String() + " NOT IN (" + i.Subquery.String() + ")"
	}
	return i.Left.String() + " IN (" + i.Subquery.String() + ")"
}
func (i *InSubquery) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("InSubquery takes 2 children")
	}
	sub, ok := children[1].(*Subquery)
	if !ok {
		return nil, sql.ErrInvariantBreach.New("InSubquery's second child must be a Subquery")
	}
	return &InSubquery{Left: children[0], Subquery: sub, Not: i.Not}, nil
}

func (i *InSubquery) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	lv, err := i.Left.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if lv == nil {
		return nil, nil
	}
	values, err := i.Subquery.EvalMulti(ctx, row)
	if err != nil {
		return nil, err
	}
	sawNull := false
	for _, rv := range values {
		if rv == nil {
			sawNull = true
			continue
		}
		cmpType := comparisonType(i.Left.Type(), i.Subquery.Type())
		lc, err := cmpType.Convert(lv)
		if err != nil {
			return nil, err
		}
		rc, err := cmpType.Convert(rv)
		if err != nil {
			return nil, err
		}
		cmp, err := cmpType.Compare(lc, rc)
		if err != nil {
			return nil, err
		}
		if cmp == 0 {
			if i.Not {
				return false, nil
			}
			return true, nil
		}
	}
	if sawNull {
		return nil, nil
	}
	return i.Not, nil
}
