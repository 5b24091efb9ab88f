package rowexec

import (
	"fmt"
	"io"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/plan"
)

// defaultGroupByBudget bounds the number of resident groups the hash
// aggregator keeps before falling back to a whole-input re-aggregation
// pass (§4.4: "a two-pass 'fall back to whole-input re-aggregation' is
// acceptable for the conformance surface"). plan.GroupBy.BudgetGroups
// overrides this per statement when the planbuilder sets it.
const defaultGroupByBudget = 200000

type groupState struct {
	firstRow sql.Row
	accs     []sql.Accumulator
}

func newGroupState(aggs []plan.AggExpr, row sql.Row) *groupState {
	gs := &groupState{firstRow: row, accs: make([]sql.Accumulator, len(aggs))}
	for i, a := range aggs {
		if a.Agg != nil {
			gs.accs[i] = a.Agg.NewAccumulator()
		}
	}
	return gs
}

// groupByIter is single-pass hash aggregation over the whole child (§4.2):
// Next computes every group on first call, then drains the materialized
// result rows.
type groupByIter struct {
	ctx  *sql.Context
	node *plan.GroupBy
	child sql.RowIter

	rows    []sql.Row
	pos     int
	started bool
}

func buildGroupBy(ctx *sql.Context, n *plan.GroupBy) (sql.RowIter, error) {
	child, err := Build(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	return &groupByIter{ctx: ctx, node: n, child: child}, nil
}

func groupKey(ctx *sql.Context, cols []sql.Expression, row sql.Row) (string, error) {
	if len(cols) == 0 {
		return "", nil
	}
	vals := make([]interface{}, len(cols))
	for i, c := range cols {
		v, err := c.Eval(ctx, row)
		if err != nil {
			return "", err
		}
		vals[i] = v
	}
	return fmt.Sprintf("%v", vals), nil
}

func (it *groupByIter) compute(ctx *sql.Context) error {
	budget := it.node.BudgetGroups
	if budget <= 0 {
		budget = defaultGroupByBudget
	}
	groups := make(map[string]*groupState)
	order := make([]string, 0)
	child := it.child
	restarted := false

	for {
		row, err := child.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		key, err := groupKey(ctx, it.node.GroupCols, row)
		if err != nil {
			return err
		}
		gs, ok := groups[key]
		if !ok {
			if !restarted && len(it.node.GroupCols) > 0 && int64(len(groups)) >= budget {
				_ = child.Close(ctx)
				child, err = Build(ctx, it.node.Child)
				if err != nil {
					return err
				}
				groups = make(map[string]*groupState)
				order = order[:0]
				restarted = true
				continue
			}
			gs = newGroupState(it.node.Aggregates, row)
			groups[key] = gs
			order = append(order, key)
		}
		for i, a := range it.node.Aggregates {
			if a.Agg != nil {
				if err := gs.accs[i].Update(ctx, row); err != nil {
					return err
				}
			}
		}
	}
	if err := child.Close(ctx); err != nil {
		return err
	}

	if len(order) == 0 && len(it.node.GroupCols) == 0 {
		// Empty input, no grouping keys: one row of initial aggregate
		// values (count=0, sum=NULL, min/max=NULL) (§4.2).
		order = append(order, "")
		groups[""] = newGroupState(it.node.Aggregates, nil)
	}

	rows := make([]sql.Row, 0, len(order))
	for _, k := range order {
		gs := groups[k]
		out := make(sql.Row, len(it.node.Aggregates))
		for i, a := range it.node.Aggregates {
			if a.Agg != nil {
				v, err := gs.accs[i].Eval(ctx)
				if err != nil {
					return err
				}
				out[i] = v
			} else if gs.firstRow != nil {
				v, err := a.Key.Eval(ctx, gs.firstRow)
				if err != nil {
					return err
				}
				out[i] = v
			}
		}
		rows = append(rows, out)
	}
	it.rows = rows
	return nil
}

func (it *groupByIter) Next(ctx *sql.Context) (sql.Row, error) {
	if !it.started {
		it.started = true
		if err := it.compute(ctx); err != nil {
			return nil, err
		}
	}
	if it.pos >= len(it.rows) {
		return nil, io.EOF
	}
	row := it.rows[it.pos]
	it.pos++
	return row, nil
}

func (it *groupByIter) Close(ctx *sql.Context) error { return nil }
