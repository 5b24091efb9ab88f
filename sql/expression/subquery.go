package expression

import (
	"fmt"

	"github.com/vinedb/vine/sql"
)

// CorrelatedBinding threads one outer-row column into a correlated
// subquery's Query: planbuilder binds an outer ColName it can't resolve
// inside the subquery's own scope to a synthetic user-variable name, and
// builds the subquery's inner expression referencing that outer column as
// an expression.UserVar of the same name (§4.1 binding rules, §6 Subquery).
type CorrelatedBinding struct {
	OuterIndex int
	VarName    string // e.g. "@__corr_0"; matches the UserVar read inside Query
}

// Subquery wraps a Node representing a scalar or row-producing subquery
// plan. A correlated subquery references columns from the outer row; since
// re-running it per outer row is correct but wasteful when the same outer
// key recurs (e.g. a nested-loop join probing the same correlated value),
// EvalMulti results are memoized by the whole outer row's values for the
// lifetime of the Subquery value (§4.1, §9). Eval is not memoized and
// re-runs the query on every call.
type Subquery struct {
	Query      sql.Node
	Correlated bool
	Bindings   []CorrelatedBinding

	cache map[string][]interface{}
}

func NewSubquery(query sql.Node, correlated bool) *Subquery {
	return &Subquery{Query: query, Correlated: correlated, cache: make(map[string][]interface{})}
}

// NewCorrelatedSubquery returns a correlated Subquery whose Query reads
// outer-row columns through bindings (each an expression.UserVar planted
// where an outer ColName appears inside Query).
func NewCorrelatedSubquery(query sql.Node, bindings []CorrelatedBinding) *Subquery {
	return &Subquery{Query: query, Correlated: true, Bindings: bindings, cache: make(map[string][]interface{})}
}

func (s *Subquery) Type() sql.Type {
	sch := s.Query.Schema()
	if len(sch) == 0 {
		return nil
	}
	return sch[0].Type
}
func (s *Subquery) Resolved() bool               { return s.Query.Resolved() }
func (s *Subquery) Children() []sql.Expression    { return nil }
func (s *Subquery) String() string                { return "(" + s.Query.String() + ")" }
func (s *Subquery) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("Subquery takes no expression children")
	}
	return s, nil
}

// memoKey derives a cache key from the outer row. Uncorrelated subqueries
// always use the same key since their result doesn't depend on row.
func (s *Subquery) memoKey(row sql.Row) string {
	if !s.Correlated {
		return ""
	}
	return fmt.Sprintf("%v", []interface{}(row))
}

// evalRows materializes the subquery's result rows, consulting the memo
// cache first.
func (s *Subquery) evalRows(ctx *sql.Context, row sql.Row) ([]sql.Row, error) {
	if sql.NodeExecutor == nil {
		return nil, sql.ErrInvariantBreach.New("no NodeExecutor registered")
	}
	for _, b := range s.Bindings {
		if b.OuterIndex < 0 || b.OuterIndex >= len(row) {
			return nil, sql.ErrInvariantBreach.New("correlated subquery outer column ordinal out of range")
		}
		ctx.Session.CurrentFrame().SetLocal(b.VarName, nil, row[b.OuterIndex])
	}
	iter, err := sql.NodeExecutor(ctx, s.Query)
	if err != nil {
		return nil, err
	}
	return sql.RowIterToRows(ctx, s.Query.Schema(), iter)
}

// EvalMulti returns every value of the subquery's first (and only
// expected) projected column, for use by IN (subquery) and quantified
// comparisons.
func (s *Subquery) EvalMulti(ctx *sql.Context, row sql.Row) ([]interface{}, error) {
	key := s.memoKey(row)
	if cached, ok := s.cache[key]; ok {
		return cached, nil
	}
	rows, err := s.evalRows(ctx, row)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, len(rows))
	for i, r := range rows {
		if len(r) > 0 {
			values[i] = r[0]
		}
	}
	s.cache[key] = values
	return values, nil
}

// Eval returns the subquery's scalar value. Per §4.1, a scalar subquery
// must produce at most one row; more than one row is an error, zero rows
// yields NULL.
func (s *Subquery) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	rows, err := s.evalRows(ctx, row)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows) > 1 {
		return nil, sql.ErrSubqueryTooManyRows.New()
	}
	if len(rows[0]) == 0 {
		return nil, nil
	}
	return rows[0][0], nil
}
