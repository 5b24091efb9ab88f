package rowexec

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/expression"
	"github.com/vinedb/vine/sql/plan"
)

// filterIter emits child rows for which Predicate is SQL-true; false and
// NULL are skipped (§4.2).
type filterIter struct {
	child     sql.RowIter
	predicate sql.Expression
}

func buildFilter(ctx *sql.Context, n *plan.Filter) (sql.RowIter, error) {
	child, err := Build(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	return &filterIter{child: child, predicate: n.Predicate}, nil
}

func (it *filterIter) Next(ctx *sql.Context) (sql.Row, error) {
	for {
		row, err := it.child.Next(ctx)
		if err != nil {
			return nil, err
		}
		v, err := it.predicate.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		if expression.IsTrue(v) {
			return row, nil
		}
	}
}

func (it *filterIter) Close(ctx *sql.Context) error { return it.child.Close(ctx) }

// projectIter computes one output row per input row via its column
// evaluator list (§4.2).
type projectIter struct {
	child   sql.RowIter
	columns []plan.ProjectColumn
}

func buildProject(ctx *sql.Context, n *plan.Project) (sql.RowIter, error) {
	child, err := Build(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	return &projectIter{child: child, columns: n.Columns}, nil
}

func (it *projectIter) Next(ctx *sql.Context) (sql.Row, error) {
	row, err := it.child.Next(ctx)
	if err != nil {
		return nil, err
	}
	out := make(sql.Row, len(it.columns))
	for i, c := range it.columns {
		v, err := c.Expr.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (it *projectIter) Close(ctx *sql.Context) error { return it.child.Close(ctx) }
