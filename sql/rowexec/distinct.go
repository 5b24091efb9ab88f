package rowexec

import (
	"fmt"
	"io"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/plan"
)

// rowKey derives a comparable map key from a full row, used by Distinct and
// the set operators (§4.2: "deduplicates over the full row").
func rowKey(row sql.Row) string { return fmt.Sprintf("%v", []interface{}(row)) }

type distinctIter struct {
	child sql.RowIter
	seen  map[string]bool
}

func buildDistinct(ctx *sql.Context, n *plan.Distinct) (sql.RowIter, error) {
	child, err := Build(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	return &distinctIter{child: child, seen: make(map[string]bool)}, nil
}

func (it *distinctIter) Next(ctx *sql.Context) (sql.Row, error) {
	for {
		row, err := it.child.Next(ctx)
		if err != nil {
			return nil, err
		}
		key := rowKey(row)
		if it.seen[key] {
			continue
		}
		it.seen[key] = true
		return row, nil
	}
}
func (it *distinctIter) Close(ctx *sql.Context) error { return it.child.Close(ctx) }

// spillableDistinctIter bounds its seen-set: once MaxSeenKeys is crossed the
// set is cleared, which may re-emit a row already seen in an earlier batch
// (§4.2: "acceptable only when the caller does not require global
// uniqueness").
type spillableDistinctIter struct {
	child sql.RowIter
	max   int
	seen  map[string]bool
}

func buildSpillableDistinct(ctx *sql.Context, n *plan.SpillableDistinct) (sql.RowIter, error) {
	child, err := Build(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	max := n.MaxSeenKeys
	if max <= 0 {
		max = 100000
	}
	return &spillableDistinctIter{child: child, max: max, seen: make(map[string]bool)}, nil
}

func (it *spillableDistinctIter) Next(ctx *sql.Context) (sql.Row, error) {
	for {
		row, err := it.child.Next(ctx)
		if err != nil {
			return nil, err
		}
		key := rowKey(row)
		if it.seen[key] {
			continue
		}
		if len(it.seen) >= it.max {
			it.seen = make(map[string]bool)
		}
		it.seen[key] = true
		return row, nil
	}
}
func (it *spillableDistinctIter) Close(ctx *sql.Context) error { return it.child.Close(ctx) }

// limitIter skips Offset rows then emits up to Count (§4.2).
type limitIter struct {
	child     sql.RowIter
	remaining int64
	skip      int64
}

func buildLimit(ctx *sql.Context, n *plan.Limit) (sql.RowIter, error) {
	child, err := Build(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	count, err := evalInt64(ctx, n.Count, nil)
	if err != nil {
		_ = child.Close(ctx)
		return nil, err
	}
	var offset int64
	if n.Offset != nil {
		offset, err = evalInt64(ctx, n.Offset, nil)
		if err != nil {
			_ = child.Close(ctx)
			return nil, err
		}
	}
	return &limitIter{child: child, remaining: count, skip: offset}, nil
}

func evalInt64(ctx *sql.Context, e sql.Expression, row sql.Row) (int64, error) {
	v, err := e.Eval(ctx, row)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, sql.ErrNonNumericOperand.New(v)
	}
}

func (it *limitIter) Next(ctx *sql.Context) (sql.Row, error) {
	for it.skip > 0 {
		if _, err := it.child.Next(ctx); err != nil {
			return nil, err
		}
		it.skip--
	}
	if it.remaining <= 0 {
		return nil, io.EOF
	}
	row, err := it.child.Next(ctx)
	if err != nil {
		return nil, err
	}
	it.remaining--
	return row, nil
}
func (it *limitIter) Close(ctx *sql.Context) error { return it.child.Close(ctx) }
