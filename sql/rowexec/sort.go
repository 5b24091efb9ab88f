package rowexec

import (
	"io"
	"sort"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/plan"
	"github.com/vinedb/vine/sql/rowexec/spill"
)

// compareValues orders two already-evaluated values under a single sort
// field: NULL orders low regardless of direction (§4.2).
func compareValues(typ sql.Type, a, b interface{}, desc bool) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}
	cmp, err := typ.Compare(a, b)
	if err != nil {
		return 0, err
	}
	if desc {
		cmp = -cmp
	}
	return cmp, nil
}

// lessFunc builds a total-order comparator over Fields, evaluated against
// already-materialized rows, used by both the in-memory and external sorts.
func lessFunc(ctx *sql.Context, fields []plan.SortField) (func(a, b sql.Row) bool, *error) {
	var evalErr error
	less := func(a, b sql.Row) bool {
		if evalErr != nil {
			return false
		}
		for _, f := range fields {
			av, err := f.Expr.Eval(ctx, a)
			if err != nil {
				evalErr = err
				return false
			}
			bv, err := f.Expr.Eval(ctx, b)
			if err != nil {
				evalErr = err
				return false
			}
			cmp, err := compareValues(f.Expr.Type(), av, bv, f.Desc)
			if err != nil {
				evalErr = err
				return false
			}
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	}
	return less, &evalErr
}

func buildOrderBy(ctx *sql.Context, n *plan.OrderBy) (sql.RowIter, error) {
	child, err := Build(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	rows, err := sql.RowIterToRows(ctx, n.Child.Schema(), child)
	if err != nil {
		return nil, err
	}
	less, errp := lessFunc(ctx, n.Fields)
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	if *errp != nil {
		return nil, *errp
	}
	return sql.RowsToRowIter(rows...), nil
}

// buildExternalSort wires the memory-bounded spill subsystem (§4.4): rows
// are fed to a spill.Sorter budgeted in bytes, which spills sorted runs to
// disk once the resident buffer crosses BudgetBytes, then k-way merges every
// run (plus any in-memory remainder) into a single sorted stream.
func buildExternalSort(ctx *sql.Context, n *plan.ExternalSort) (sql.RowIter, error) {
	child, err := Build(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	less, errp := lessFunc(ctx, n.Fields)
	sorter := spill.NewSorter(less, n.BudgetBytes)
	for {
		row, err := child.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = child.Close(ctx)
			return nil, err
		}
		if err := sorter.Add(row); err != nil {
			_ = child.Close(ctx)
			return nil, err
		}
	}
	if err := child.Close(ctx); err != nil {
		return nil, err
	}
	if *errp != nil {
		return nil, *errp
	}
	result, err := sorter.Finish()
	if err != nil {
		return nil, err
	}
	return &externalSortIter{ctx: ctx, result: result}, nil
}

type externalSortIter struct {
	ctx    *sql.Context
	result *spill.Result
}

func (it *externalSortIter) Next(ctx *sql.Context) (sql.Row, error) { return it.result.Next() }
func (it *externalSortIter) Close(ctx *sql.Context) error           { return it.result.Close() }
