package rowexec

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/plan"
)

// buildUnion concatenates Left then Right; without ALL it deduplicates over
// the full materialized result (§4.2).
func buildUnion(ctx *sql.Context, n *plan.Union) (sql.RowIter, error) {
	left, err := Build(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	leftRows, err := sql.RowIterToRows(ctx, n.Left.Schema(), left)
	if err != nil {
		return nil, err
	}
	right, err := Build(ctx, n.Right)
	if err != nil {
		return nil, err
	}
	rightRows, err := sql.RowIterToRows(ctx, n.Right.Schema(), right)
	if err != nil {
		return nil, err
	}
	all := append(append([]sql.Row{}, leftRows...), rightRows...)
	if n.All {
		return sql.RowsToRowIter(all...), nil
	}
	return sql.RowsToRowIter(dedupRows(all)...), nil
}

func dedupRows(rows []sql.Row) []sql.Row {
	seen := make(map[string]bool, len(rows))
	out := make([]sql.Row, 0, len(rows))
	for _, r := range rows {
		k := rowKey(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

func countByKey(rows []sql.Row) map[string]int {
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[rowKey(r)]++
	}
	return counts
}

// buildIntersect emits rows present in both sides: ALL uses multiset
// min-count, otherwise it deduplicates (§4.2).
func buildIntersect(ctx *sql.Context, n *plan.Intersect) (sql.RowIter, error) {
	leftRows, rightRows, err := materializeBothSides(ctx, n.Left, n.Right)
	if err != nil {
		return nil, err
	}
	rightCounts := countByKey(rightRows)
	var out []sql.Row
	if n.All {
		remaining := make(map[string]int, len(rightCounts))
		for k, v := range rightCounts {
			remaining[k] = v
		}
		for _, r := range leftRows {
			k := rowKey(r)
			if remaining[k] > 0 {
				out = append(out, r)
				remaining[k]--
			}
		}
		return sql.RowsToRowIter(out...), nil
	}
	seen := make(map[string]bool)
	for _, r := range leftRows {
		k := rowKey(r)
		if rightCounts[k] > 0 && !seen[k] {
			seen[k] = true
			out = append(out, r)
		}
	}
	return sql.RowsToRowIter(out...), nil
}

// buildExcept emits rows of Left absent from Right: ALL subtracts multiset
// counts, otherwise it deduplicates (§4.2).
func buildExcept(ctx *sql.Context, n *plan.Except) (sql.RowIter, error) {
	leftRows, rightRows, err := materializeBothSides(ctx, n.Left, n.Right)
	if err != nil {
		return nil, err
	}
	rightCounts := countByKey(rightRows)
	var out []sql.Row
	if n.All {
		remaining := make(map[string]int, len(rightCounts))
		for k, v := range rightCounts {
			remaining[k] = v
		}
		for _, r := range leftRows {
			k := rowKey(r)
			if remaining[k] > 0 {
				remaining[k]--
				continue
			}
			out = append(out, r)
		}
		return sql.RowsToRowIter(out...), nil
	}
	seen := make(map[string]bool)
	for _, r := range leftRows {
		k := rowKey(r)
		if rightCounts[k] > 0 || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return sql.RowsToRowIter(out...), nil
}

func materializeBothSides(ctx *sql.Context, leftNode, rightNode sql.Node) ([]sql.Row, []sql.Row, error) {
	left, err := Build(ctx, leftNode)
	if err != nil {
		return nil, nil, err
	}
	leftRows, err := sql.RowIterToRows(ctx, leftNode.Schema(), left)
	if err != nil {
		return nil, nil, err
	}
	right, err := Build(ctx, rightNode)
	if err != nil {
		return nil, nil, err
	}
	rightRows, err := sql.RowIterToRows(ctx, rightNode.Schema(), right)
	if err != nil {
		return nil, nil, err
	}
	return leftRows, rightRows, nil
}
