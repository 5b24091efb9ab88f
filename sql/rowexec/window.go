package rowexec

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/plan"
)

// buildWindow buffers the full input, partitions it by the string form of
// each row's partition-key tuple (NULL is a distinct "NULL", §4.3), sorts
// within partition by the window's sort keys, and appends one computed
// column per declared window function in partition order, running or
// whole-partition depending on whether the function declares an ORDER BY
// (§4.3).
func buildWindow(ctx *sql.Context, n *plan.Window) (sql.RowIter, error) {
	child, err := Build(ctx, n.Child)
	if err != nil {
		return nil, err
	}
	rows, err := sql.RowIterToRows(ctx, n.Child.Schema(), child)
	if err != nil {
		return nil, err
	}

	out := make([]sql.Row, len(rows))
	for i, r := range rows {
		out[i] = append(sql.Row{}, r...)
	}

	for _, spec := range n.Funcs {
		partitions, err := partitionRows(ctx, rows, spec.PartitionBy)
		if err != nil {
			return nil, err
		}
		for _, idxs := range partitions {
			sortPartition(ctx, rows, idxs, spec.OrderBy)
			values, err := computeWindowFunc(ctx, spec, rows, idxs)
			if err != nil {
				return nil, err
			}
			for i, idx := range idxs {
				out[idx] = append(out[idx], values[i])
			}
		}
	}
	return sql.RowsToRowIter(out...), nil
}

// partitionRows groups row indices by the string form of their partition-key
// tuple, preserving each group's first-seen order; a nil partition-key list
// puts every row in one partition (§4.3).
func partitionRows(ctx *sql.Context, rows []sql.Row, partitionBy []sql.Expression) ([][]int, error) {
	if len(partitionBy) == 0 {
		idxs := make([]int, len(rows))
		for i := range rows {
			idxs[i] = i
		}
		return [][]int{idxs}, nil
	}
	order := make([]string, 0)
	groups := make(map[string][]int)
	for i, row := range rows {
		vals := make([]interface{}, len(partitionBy))
		for j, p := range partitionBy {
			v, err := p.Eval(ctx, row)
			if err != nil {
				return nil, err
			}
			if v == nil {
				vals[j] = "NULL"
			} else {
				vals[j] = v
			}
		}
		key := fmt.Sprintf("%v", vals)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	out := make([][]int, len(order))
	for i, k := range order {
		out[i] = groups[k]
	}
	return out, nil
}

func sortPartition(ctx *sql.Context, rows []sql.Row, idxs []int, fields []plan.SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		a, b := rows[idxs[i]], rows[idxs[j]]
		for _, f := range fields {
			av, err := f.Expr.Eval(ctx, a)
			if err != nil {
				return false
			}
			bv, err := f.Expr.Eval(ctx, b)
			if err != nil {
				return false
			}
			cmp, err := compareValues(f.Expr.Type(), av, bv, f.Desc)
			if err != nil {
				return false
			}
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
}

// computeWindowFunc evaluates spec over one already-partitioned,
// already-sorted partition (idxs, in partition order), returning one value
// per member in the same order (§4.3).
func computeWindowFunc(ctx *sql.Context, spec plan.WindowFuncSpec, rows []sql.Row, idxs []int) ([]interface{}, error) {
	n := len(idxs)
	out := make([]interface{}, n)

	switch spec.Kind {
	case plan.RowNumber:
		for i := range idxs {
			out[i] = int64(i + 1)
		}
		return out, nil

	case plan.Rank, plan.DenseRank:
		rank, dense := int64(1), int64(1)
		for i := range idxs {
			if i > 0 && !sameOrderKey(ctx, spec.OrderBy, rows[idxs[i-1]], rows[idxs[i]]) {
				rank = int64(i + 1)
				dense++
			}
			if spec.Kind == plan.Rank {
				out[i] = rank
			} else {
				out[i] = dense
			}
		}
		return out, nil

	case plan.Ntile:
		buckets := spec.N
		if buckets <= 0 {
			buckets = 1
		}
		base := int64(n) / buckets
		extra := int64(n) % buckets
		pos := int64(0)
		for b := int64(0); b < buckets && pos < int64(n); b++ {
			size := base
			if b < extra {
				size++
			}
			for j := int64(0); j < size && pos < int64(n); j++ {
				out[pos] = b + 1
				pos++
			}
		}
		return out, nil

	case plan.Lag, plan.Lead:
		offset := spec.Offset
		if offset == 0 {
			offset = 1
		}
		for i := range idxs {
			var j int
			if spec.Kind == plan.Lag {
				j = i - int(offset)
			} else {
				j = i + int(offset)
			}
			if j < 0 || j >= n {
				if spec.Default != nil {
					v, err := spec.Default.Eval(ctx, rows[idxs[i]])
					if err != nil {
						return nil, err
					}
					out[i] = v
				}
				continue
			}
			v, err := spec.Arg.Eval(ctx, rows[idxs[j]])
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case plan.FirstValue:
		v, err := spec.Arg.Eval(ctx, rows[idxs[0]])
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] = v
		}
		return out, nil

	case plan.LastValue:
		for i := range idxs {
			bound := i
			if !spec.HasOrderBy {
				bound = n - 1
			}
			v, err := spec.Arg.Eval(ctx, rows[idxs[bound]])
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case plan.NthValue:
		pos := int(spec.N) - 1
		if pos < 0 || pos >= n {
			return out, nil
		}
		v, err := spec.Arg.Eval(ctx, rows[idxs[pos]])
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] = v
		}
		return out, nil

	case plan.CumeDist:
		for i := range idxs {
			peer := peerCountUpTo(ctx, spec.OrderBy, rows, idxs, i)
			out[i] = decimal.NewFromInt(int64(peer)).Div(decimal.NewFromInt(int64(n)))
		}
		return out, nil

	case plan.PercentRank:
		if n == 1 {
			out[0] = decimal.Zero
			return out, nil
		}
		rank := int64(1)
		for i := range idxs {
			if i > 0 && !sameOrderKey(ctx, spec.OrderBy, rows[idxs[i-1]], rows[idxs[i]]) {
				rank = int64(i + 1)
			}
			out[i] = decimal.NewFromInt(rank - 1).Div(decimal.NewFromInt(int64(n - 1)))
		}
		return out, nil

	case plan.WindowCount, plan.WindowSum, plan.WindowAvg, plan.WindowMin, plan.WindowMax:
		return computeWindowAggregate(ctx, spec, rows, idxs)
	}
	return out, nil
}

// peerCountUpTo counts rows with an order key <= that at position i,
// inclusive of every peer sharing the same key (CUME_DIST's definition).
func peerCountUpTo(ctx *sql.Context, orderBy []plan.SortField, rows []sql.Row, idxs []int, i int) int {
	count := i + 1
	for count < len(idxs) && sameOrderKey(ctx, orderBy, rows[idxs[i]], rows[idxs[count]]) {
		count++
	}
	return count
}

func sameOrderKey(ctx *sql.Context, orderBy []plan.SortField, a, b sql.Row) bool {
	for _, f := range orderBy {
		av, err := f.Expr.Eval(ctx, a)
		if err != nil {
			return false
		}
		bv, err := f.Expr.Eval(ctx, b)
		if err != nil {
			return false
		}
		cmp, err := compareValues(f.Expr.Type(), av, bv, false)
		if err != nil || cmp != 0 {
			return false
		}
	}
	return true
}

// computeWindowAggregate implements SUM/AVG/MIN/MAX/COUNT OVER (): without
// ORDER BY the aggregate runs over the whole partition; with ORDER BY it
// runs over rows 1..i, i.e. a running aggregate (§4.3).
func computeWindowAggregate(ctx *sql.Context, spec plan.WindowFuncSpec, rows []sql.Row, idxs []int) ([]interface{}, error) {
	out := make([]interface{}, len(idxs))
	if !spec.HasOrderBy {
		v, err := foldWindowAggregate(ctx, spec, rows, idxs)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] = v
		}
		return out, nil
	}
	for i := range idxs {
		v, err := foldWindowAggregate(ctx, spec, rows, idxs[:i+1])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func foldWindowAggregate(ctx *sql.Context, spec plan.WindowFuncSpec, rows []sql.Row, idxs []int) (interface{}, error) {
	switch spec.Kind {
	case plan.WindowCount:
		if spec.Arg == nil {
			return int64(len(idxs)), nil
		}
		var count int64
		for _, idx := range idxs {
			v, err := spec.Arg.Eval(ctx, rows[idx])
			if err != nil {
				return nil, err
			}
			if v != nil {
				count++
			}
		}
		return count, nil
	case plan.WindowSum, plan.WindowAvg:
		sum := decimal.Zero
		var count int64
		for _, idx := range idxs {
			v, err := spec.Arg.Eval(ctx, rows[idx])
			if err != nil {
				return nil, err
			}
			if v == nil {
				continue
			}
			d, err := toWindowDecimal(v)
			if err != nil {
				return nil, err
			}
			sum = sum.Add(d)
			count++
		}
		if count == 0 {
			return nil, nil
		}
		if spec.Kind == plan.WindowAvg {
			return sum.Div(decimal.NewFromInt(count)), nil
		}
		return sum, nil
	case plan.WindowMin, plan.WindowMax:
		var best interface{}
		for _, idx := range idxs {
			v, err := spec.Arg.Eval(ctx, rows[idx])
			if err != nil {
				return nil, err
			}
			if v == nil {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			cmp, err := spec.Arg.Type().Compare(v, best)
			if err != nil {
				return nil, err
			}
			if (spec.Kind == plan.WindowMax && cmp > 0) || (spec.Kind == plan.WindowMin && cmp < 0) {
				best = v
			}
		}
		return best, nil
	}
	return nil, sql.ErrUnsupportedFeature.New("window aggregate")
}

func toWindowDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Zero, sql.ErrNonNumericOperand.New(v)
	}
}
