package planbuilder

import (
	"fmt"
	"math"
	"strings"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/ast"
	"github.com/vinedb/vine/sql/expression"
	"github.com/vinedb/vine/sql/plan"
)

// buildSelect compiles a SELECT statement against s's enclosing scope.
// Called both for the top-level statement and for a derived table's
// defining query; neither establishes a new correlation boundary, so a
// nested SELECT still resolves an unbound column against s's own parent
// if one is set.
func (b *Builder) buildSelect(s *scope, sel *ast.SelectStatement) (sql.Node, sql.Schema, error) {
	return b.buildSelectIn(s, sel)
}

// buildSelectCorrelated compiles sub's SELECT one level below s, returning
// the bindings resolveColumn recorded against s while doing so (§4.1, §6
// Subquery) — the mechanism expression.Subquery uses to plant outer values
// before each evaluation.
func (b *Builder) buildSelectCorrelated(s *scope, sel *ast.SelectStatement) (sql.Node, *[]expression.CorrelatedBinding, error) {
	inner, binds := s.childScope(sql.Schema{})
	node, _, err := b.buildSelectIn(inner, sel)
	if err != nil {
		return nil, nil, err
	}
	return node, binds, nil
}

func (b *Builder) buildSelectIn(s *scope, sel *ast.SelectStatement) (sql.Node, sql.Schema, error) {
	s, err := b.materializeCTEs(s, sel.CTEs)
	if err != nil {
		return nil, nil, err
	}

	node, sch, err := b.buildFrom(s, sel.From)
	if err != nil {
		return nil, nil, err
	}
	fromScope := s.withSchema(sch)

	if sel.Where != nil {
		pred, err := b.buildExpr(fromScope, sel.Where)
		if err != nil {
			return nil, nil, err
		}
		node = plan.NewFilter(pred, node)
	}

	node, outSchema, err := b.buildProjection(fromScope, sel, node)
	if err != nil {
		return nil, nil, err
	}

	if sel.Distinct {
		if len(sel.SetOps) > 0 {
			node = plan.NewSpillableDistinct(b.DistinctBudgetKeys, node)
		} else {
			node = plan.NewDistinct(node)
		}
	}

	for _, op := range sel.SetOps {
		rhs, _, err := b.buildSelect(s, op.Rhs)
		if err != nil {
			return nil, nil, err
		}
		switch strings.ToUpper(op.Kind) {
		case "UNION":
			node = plan.NewUnion(node, rhs, op.All)
		case "INTERSECT":
			node = plan.NewIntersect(node, rhs, op.All)
		case "EXCEPT", "MINUS":
			node = plan.NewExcept(node, rhs, op.All)
		default:
			return nil, nil, sql.ErrUnsupportedFeature.New("set operation " + op.Kind)
		}
		outSchema = node.Schema()
	}

	finalScope := s.withSchema(outSchema)

	if len(sel.OrderBy) > 0 {
		fields, err := b.buildOrderBy(finalScope, sel.OrderBy, outSchema)
		if err != nil {
			return nil, nil, err
		}
		if useExternalSort(node) {
			node = plan.NewExternalSort(fields, b.SortBudgetBytes, node)
		} else {
			node = plan.NewOrderBy(fields, node)
		}
	}

	if sel.Limit != nil || sel.Offset != nil {
		var count sql.Expression
		if sel.Limit != nil {
			count, err = b.buildExpr(finalScope, sel.Limit)
			if err != nil {
				return nil, nil, err
			}
		} else {
			count = expression.NewLiteral(int64(math.MaxInt64), literalType(int64(0)))
		}
		var offset sql.Expression
		if sel.Offset != nil {
			offset, err = b.buildExpr(finalScope, sel.Offset)
			if err != nil {
				return nil, nil, err
			}
		}
		node = plan.NewLimit(count, offset, node)
	}

	return node, outSchema, nil
}

// materializeCTEs runs each WITH binding's defining query through the
// operator pipeline, drains it into a sql.MaterializedCTE registered on the
// session, and returns s itself, unchanged — CTE names
// are resolved through ctx.Session.CTEs() in buildTableName, not through
// the scope's schema chain.
func (b *Builder) materializeCTEs(s *scope, ctes []ast.CommonTableExpr) (*scope, error) {
	for _, cte := range ctes {
		if cte.Recursive {
			return nil, sql.ErrUnsupportedFeature.New("recursive common table expression")
		}
		if sql.NodeExecutor == nil {
			return nil, sql.ErrInvariantBreach.New("no NodeExecutor registered")
		}
		defNode, _, err := b.buildSelect(s, cte.Select)
		if err != nil {
			return nil, err
		}
		iter, err := sql.NodeExecutor(s.ctx, defNode)
		if err != nil {
			return nil, err
		}
		sch := defNode.Schema()
		rows, err := sql.RowIterToRows(s.ctx, sch, iter)
		if err != nil {
			return nil, err
		}
		named := sch.WithSource(cte.Name)
		if len(cte.Columns) == len(named) {
			for i, c := range cte.Columns {
				cp := *named[i]
				cp.Name = c
				named[i] = &cp
			}
		}
		s.ctx.Session.AddCTE(&sql.MaterializedCTE{Name: cte.Name, Schema: named, Rows: rows})
	}
	return s, nil
}

// buildProjection builds the SELECT list, choosing a GroupBy (grouping is
// applied whenever GROUP BY is present, any select-list item is an
// aggregate call, or HAVING is present) or a plain Project. Window function
// calls in the select list are only supported in the non-grouped path
// (§4.3 Non-goals: combining GROUP BY with window functions in one query is
// not supported).
func (b *Builder) buildProjection(s *scope, sel *ast.SelectStatement, child sql.Node) (sql.Node, sql.Schema, error) {
	hasWindow := containsWindowCall(sel.SelectList)
	needsGroup := len(sel.GroupBy) > 0 || sel.Having != nil || containsAggregateCall(b, sel.SelectList)

	if needsGroup {
		if hasWindow {
			return nil, nil, sql.ErrUnsupportedFeature.New("window function combined with GROUP BY")
		}
		return b.buildGroupBy(s, sel, child)
	}
	if hasWindow {
		return b.buildWindowProjection(s, sel, child)
	}
	return b.buildPlainProjection(s, sel.SelectList, child)
}

func (b *Builder) buildGroupBy(s *scope, sel *ast.SelectStatement, child sql.Node) (sql.Node, sql.Schema, error) {
	groupCols := make([]sql.Expression, len(sel.GroupBy))
	for i, g := range sel.GroupBy {
		e, err := b.buildExpr(s, g)
		if err != nil {
			return nil, nil, err
		}
		groupCols[i] = e
	}

	aggs, err := b.buildAggExprs(s, sel.SelectList)
	if err != nil {
		return nil, nil, err
	}

	node := plan.NewGroupBy(groupCols, aggs, child)
	node.BudgetGroups = b.GroupBudgetGroups
	outSchema := node.Schema()

	var out sql.Node = node
	if sel.Having != nil {
		havingScope := s.withSchema(outSchema)
		pred, err := b.buildExpr(havingScope, sel.Having)
		if err != nil {
			return nil, nil, err
		}
		out = plan.NewFilter(pred, out)
	}
	return out, outSchema, nil
}

// buildAggExprs binds each SELECT-list item to an AggExpr: a bare column
// (or any non-aggregate expression) becomes a group key, a call resolving
// to sql.Aggregation becomes the aggregate slot.
func (b *Builder) buildAggExprs(s *scope, list []ast.SelectExpr) ([]plan.AggExpr, error) {
	var out []plan.AggExpr
	for _, item := range list {
		if star, ok := item.Expr.(*ast.Star); ok {
			cols, err := b.expandStar(s, star)
			if err != nil {
				return nil, err
			}
			for _, c := range cols {
				out = append(out, plan.AggExpr{Key: c.Expr, Name: c.Name})
			}
			continue
		}
		e, err := b.buildExpr(s, item.Expr)
		if err != nil {
			return nil, err
		}
		name := outputName(item, item.Expr)
		if agg, ok := e.(sql.Aggregation); ok {
			out = append(out, plan.AggExpr{Agg: agg, Name: name})
		} else {
			out = append(out, plan.AggExpr{Key: e, Name: name})
		}
	}
	return out, nil
}

func (b *Builder) buildPlainProjection(s *scope, list []ast.SelectExpr, child sql.Node) (sql.Node, sql.Schema, error) {
	cols, err := b.buildProjectColumns(s, list)
	if err != nil {
		return nil, nil, err
	}
	node := plan.NewProject(cols, child)
	return node, node.Schema(), nil
}

func (b *Builder) buildProjectColumns(s *scope, list []ast.SelectExpr) ([]plan.ProjectColumn, error) {
	var out []plan.ProjectColumn
	for _, item := range list {
		if star, ok := item.Expr.(*ast.Star); ok {
			cols, err := b.expandStar(s, star)
			if err != nil {
				return nil, err
			}
			out = append(out, cols...)
			continue
		}
		e, err := b.buildExpr(s, item.Expr)
		if err != nil {
			return nil, err
		}
		out = append(out, plan.ProjectColumn{Expr: e, Name: outputName(item, item.Expr)})
	}
	return out, nil
}

func (b *Builder) expandStar(s *scope, star *ast.Star) ([]plan.ProjectColumn, error) {
	var out []plan.ProjectColumn
	for i, c := range s.sch {
		if star.Table != "" && !strings.EqualFold(c.Source, star.Table) {
			continue
		}
		out = append(out, plan.ProjectColumn{
			Expr:   expression.NewGetField(i, c.Type, c.Name, c.Source),
			Name:   c.Name,
			Source: c.Source,
		})
	}
	if len(out) == 0 {
		if star.Table != "" {
			return nil, sql.ErrTableColumnNotFound.New(star.Table, "*")
		}
		return nil, sql.ErrInvariantBreach.New("'*' expanded to no columns")
	}
	return out, nil
}

// buildWindowProjection computes declared window functions over the full
// input, appended after its schema (§4.3), then projects the SELECT list
// against the combined schema.
func (b *Builder) buildWindowProjection(s *scope, sel *ast.SelectStatement, child sql.Node) (sql.Node, sql.Schema, error) {
	var specs []plan.WindowFuncSpec
	index := map[*ast.WindowFuncCall]int{}
	for _, item := range sel.SelectList {
		wc, ok := item.Expr.(*ast.WindowFuncCall)
		if !ok {
			continue
		}
		spec, err := b.buildWindowFuncSpec(s, item, wc)
		if err != nil {
			return nil, nil, err
		}
		index[wc] = len(specs)
		specs = append(specs, spec)
	}

	wnode := plan.NewWindow(specs, child)
	windowSchema := wnode.Schema()
	baseLen := len(s.sch)
	windowScope := s.withSchema(windowSchema)

	var cols []plan.ProjectColumn
	for _, item := range sel.SelectList {
		if star, ok := item.Expr.(*ast.Star); ok {
			expanded, err := b.expandStar(s, star)
			if err != nil {
				return nil, nil, err
			}
			cols = append(cols, expanded...)
			continue
		}
		if wc, ok := item.Expr.(*ast.WindowFuncCall); ok {
			idx := baseLen + index[wc]
			col := windowSchema[idx]
			cols = append(cols, plan.ProjectColumn{
				Expr: expression.NewGetField(idx, col.Type, col.Name, col.Source),
				Name: outputName(item, item.Expr),
			})
			continue
		}
		e, err := b.buildExpr(windowScope, item.Expr)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, plan.ProjectColumn{Expr: e, Name: outputName(item, item.Expr)})
	}

	node := plan.NewProject(cols, wnode)
	return node, node.Schema(), nil
}

func (b *Builder) buildWindowFuncSpec(s *scope, item ast.SelectExpr, wc *ast.WindowFuncCall) (plan.WindowFuncSpec, error) {
	kind, err := windowFuncKind(wc.Call.Name)
	if err != nil {
		return plan.WindowFuncSpec{}, err
	}
	var arg, dflt sql.Expression
	var offset, n int64
	args := wc.Call.Args
	switch kind {
	case plan.Ntile:
		if len(args) > 0 {
			nv, err := b.buildExpr(s, args[0])
			if err != nil {
				return plan.WindowFuncSpec{}, err
			}
			n = literalInt(nv)
		}
	case plan.Lag, plan.Lead:
		if len(args) > 0 {
			arg, err = b.buildExpr(s, args[0])
			if err != nil {
				return plan.WindowFuncSpec{}, err
			}
		}
		offset = 1
		if len(args) > 1 {
			ov, err := b.buildExpr(s, args[1])
			if err != nil {
				return plan.WindowFuncSpec{}, err
			}
			offset = literalInt(ov)
		}
		if len(args) > 2 {
			dflt, err = b.buildExpr(s, args[2])
			if err != nil {
				return plan.WindowFuncSpec{}, err
			}
		}
	case plan.NthValue:
		if len(args) > 0 {
			arg, err = b.buildExpr(s, args[0])
			if err != nil {
				return plan.WindowFuncSpec{}, err
			}
		}
		if len(args) > 1 {
			nv, err := b.buildExpr(s, args[1])
			if err != nil {
				return plan.WindowFuncSpec{}, err
			}
			n = literalInt(nv)
		}
	default:
		if len(args) > 0 {
			arg, err = b.buildExpr(s, args[0])
			if err != nil {
				return plan.WindowFuncSpec{}, err
			}
		}
	}
	partition := make([]sql.Expression, len(wc.Window.PartitionBy))
	for i, p := range wc.Window.PartitionBy {
		e, err := b.buildExpr(s, p)
		if err != nil {
			return plan.WindowFuncSpec{}, err
		}
		partition[i] = e
	}
	order, err := b.buildOrderBy(s, wc.Window.OrderBy, s.sch)
	if err != nil {
		return plan.WindowFuncSpec{}, err
	}
	name := item.Alias
	if name == "" {
		name = strings.ToLower(wc.Call.Name)
	}
	return plan.WindowFuncSpec{
		Kind:        kind,
		Arg:         arg,
		Offset:      offset,
		Default:     dflt,
		N:           n,
		PartitionBy: partition,
		OrderBy:     order,
		HasOrderBy:  len(wc.Window.OrderBy) > 0,
		Name:        name,
	}, nil
}

// literalInt extracts an integer from an already-built literal expression,
// used for window-function arguments MySQL requires to be constants
// (NTILE's bucket count, LAG/LEAD's offset, NTH_VALUE's position).
func literalInt(e sql.Expression) int64 {
	lit, ok := e.(*expression.Literal)
	if !ok {
		return 0
	}
	switch v := lit.Value().(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	default:
		return 0
	}
}

func windowFuncKind(name string) (plan.WindowFuncKind, error) {
	switch strings.ToUpper(name) {
	case "ROW_NUMBER":
		return plan.RowNumber, nil
	case "RANK":
		return plan.Rank, nil
	case "DENSE_RANK":
		return plan.DenseRank, nil
	case "NTILE":
		return plan.Ntile, nil
	case "LAG":
		return plan.Lag, nil
	case "LEAD":
		return plan.Lead, nil
	case "FIRST_VALUE":
		return plan.FirstValue, nil
	case "LAST_VALUE":
		return plan.LastValue, nil
	case "NTH_VALUE":
		return plan.NthValue, nil
	case "CUME_DIST":
		return plan.CumeDist, nil
	case "PERCENT_RANK":
		return plan.PercentRank, nil
	case "SUM":
		return plan.WindowSum, nil
	case "AVG":
		return plan.WindowAvg, nil
	case "MIN":
		return plan.WindowMin, nil
	case "MAX":
		return plan.WindowMax, nil
	case "COUNT":
		return plan.WindowCount, nil
	default:
		return 0, sql.ErrUnsupportedFeature.New("window function " + name)
	}
}

func (b *Builder) buildOrderBy(s *scope, list []ast.OrderByExpr, sch sql.Schema) ([]plan.SortField, error) {
	out := make([]plan.SortField, len(list))
	for i, o := range list {
		if lit, ok := o.Expr.(*ast.Literal); ok {
			if n, ok := ordinal(lit.Value); ok {
				if n < 1 || n > len(sch) {
					return nil, sql.ErrInvariantBreach.New("ORDER BY position out of range")
				}
				c := sch[n-1]
				out[i] = plan.SortField{
					Expr: expression.NewGetField(n-1, c.Type, c.Name, c.Source),
					Desc: o.Desc,
				}
				continue
			}
		}
		e, err := b.buildExpr(s, o.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = plan.SortField{Expr: e, Desc: o.Desc}
	}
	return out, nil
}

func ordinal(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// useExternalSort reports whether the sort input is large enough to
// warrant a spill-capable sort rather than a plain in-memory OrderBy
// (§4.4). A Dual source or a GroupBy with no grouping columns produces at
// most one row, so a plain OrderBy is always sufficient there.
func useExternalSort(node sql.Node) bool {
	switch n := node.(type) {
	case *plan.Dual:
		return false
	case *plan.GroupBy:
		return len(n.GroupCols) > 0
	case *plan.Filter:
		return useExternalSort(n.Child)
	default:
		return true
	}
}

func containsWindowCall(list []ast.SelectExpr) bool {
	for _, item := range list {
		if _, ok := item.Expr.(*ast.WindowFuncCall); ok {
			return true
		}
	}
	return false
}

func containsAggregateCall(b *Builder, list []ast.SelectExpr) bool {
	for _, item := range list {
		if isAggregateExpr(b, item.Expr) {
			return true
		}
	}
	return false
}

// isAggregateExpr reports whether e is (or directly contains) a call
// resolving to an aggregate function, without evaluating arguments — it
// only needs the function registry's descriptor, which implements
// sql.Aggregation independent of NewInstance (§4.3).
func isAggregateExpr(b *Builder, e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.FuncCall:
		fns := b.functions()
		if fns == nil {
			return false
		}
		fn, err := fns.Function(n.Name)
		if err != nil {
			return false
		}
		_, ok := fn.(sql.Aggregation)
		return ok
	case *ast.BinaryOp:
		return isAggregateExpr(b, n.Left) || isAggregateExpr(b, n.Right)
	case *ast.UnaryOp:
		return isAggregateExpr(b, n.Expr)
	case *ast.CaseExpr:
		for _, br := range n.Branches {
			if isAggregateExpr(b, br.Then) {
				return true
			}
		}
		return isAggregateExpr(b, n.Else)
	default:
		return false
	}
}

// outputName derives a SELECT-list item's output column name: an explicit
// alias, a bare column's own name, or a synthesized name for everything
// else (§3).
func outputName(item ast.SelectExpr, e ast.Expr) string {
	if item.Alias != "" {
		return item.Alias
	}
	switch n := e.(type) {
	case *ast.ColName:
		return n.Name
	case *ast.FuncCall:
		return strings.ToLower(n.Name)
	case *ast.WindowFuncCall:
		return strings.ToLower(n.Call.Name)
	case *ast.Literal:
		return fmt.Sprintf("%v", n.Value)
	default:
		return "expr"
	}
}
