package planbuilder

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/ast"
	"github.com/vinedb/vine/sql/plan"
)

// targetTable resolves the single physical table an UPDATE/DELETE
// acts on, plus a scan of its own schema (aliased, if aliased) for building
// WHERE/SET expressions against (§4.5: "validate then mutate" operates
// against the table's own schema, not a join). Only a plain or aliased
// table name is supported; MySQL's multi-table UPDATE/DELETE forms are out
// of scope.
func (b *Builder) targetTable(s *scope, te ast.TableExpr) (sql.Table, sql.Node, sql.Schema, error) {
	tn, ok := te.(*ast.TableName)
	if !ok {
		return nil, nil, nil, sql.ErrUnsupportedFeature.New("multi-table UPDATE/DELETE target")
	}
	dbName, err := s.resolveDB(tn.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	tab, _, err := b.Catalog.Table(s.ctx, dbName, tn.Name)
	if err != nil {
		return nil, nil, nil, err
	}
	node, sch, err := b.buildTableName(s, tn)
	if err != nil {
		return nil, nil, nil, err
	}
	return tab, node, sch, nil
}

// buildMutationPipeline wraps node with WHERE/ORDER BY/LIMIT, the scan
// pipeline UPDATE and DELETE drive to identify their target rows before
// mutating (§4.5).
func (b *Builder) buildMutationPipeline(s *scope, node sql.Node, sch sql.Schema, where ast.Expr, orderBy []ast.OrderByExpr, limit ast.Expr) (sql.Node, error) {
	sc := s.withSchema(sch)
	if where != nil {
		pred, err := b.buildExpr(sc, where)
		if err != nil {
			return nil, err
		}
		node = plan.NewFilter(pred, node)
	}
	if len(orderBy) > 0 {
		fields, err := b.buildOrderBy(sc, orderBy, sch)
		if err != nil {
			return nil, err
		}
		node = plan.NewOrderBy(fields, node)
	}
	if limit != nil {
		count, err := b.buildExpr(sc, limit)
		if err != nil {
			return nil, err
		}
		node = plan.NewLimit(count, nil, node)
	}
	return node, nil
}

func (b *Builder) buildInsert(s *scope, n *ast.InsertStatement) (sql.Node, error) {
	dbName, err := s.resolveDB(n.Table.Database)
	if err != nil {
		return nil, err
	}
	tab, _, err := b.Catalog.Table(s.ctx, dbName, n.Table.Name)
	if err != nil {
		return nil, err
	}

	var columns []int
	if len(n.Columns) > 0 {
		columns = make([]int, len(n.Columns))
		for i, name := range n.Columns {
			idx := tab.Schema().IndexOf(name, "")
			if idx == -1 {
				return nil, sql.ErrColumnNotFound.New(name)
			}
			columns[i] = idx
		}
	}

	var source sql.Node
	if n.Select != nil {
		source, _, err = b.buildSelect(s, n.Select)
		if err != nil {
			return nil, err
		}
	} else {
		source, err = b.buildValues(s, n.Rows)
		if err != nil {
			return nil, err
		}
	}

	var onDup []plan.Assignment
	if len(n.OnDupSet) > 0 {
		onDup, err = b.buildAssignments(s.withSchema(tab.Schema().WithSource(tab.Name())), tab, n.OnDupSet)
		if err != nil {
			return nil, err
		}
	}

	return plan.NewInsert(dbName, tab, columns, source, onDup, n.Ignore, n.Replace), nil
}

// buildValues compiles a VALUES row list into Projects over Dual, chained
// by UNION ALL — reusing already-declared operators (§4.2) rather than
// adding a dedicated literal-rows node: Dual always emits exactly one row,
// so Project(Dual) produces exactly one row of computed values, and UNION
// ALL concatenates without imposing its own distinctness.
func (b *Builder) buildValues(s *scope, rows [][]ast.Expr) (sql.Node, error) {
	if len(rows) == 0 {
		return nil, sql.ErrInvariantBreach.New("INSERT requires at least one row")
	}
	dualScope := s.withSchema(sql.Schema{})
	rowNode := func(vals []ast.Expr) (sql.Node, error) {
		cols := make([]plan.ProjectColumn, len(vals))
		for i, v := range vals {
			e, err := b.buildExpr(dualScope, v)
			if err != nil {
				return nil, err
			}
			cols[i] = plan.ProjectColumn{Expr: e}
		}
		return plan.NewProject(cols, plan.NewDual()), nil
	}
	out, err := rowNode(rows[0])
	if err != nil {
		return nil, err
	}
	for _, r := range rows[1:] {
		next, err := rowNode(r)
		if err != nil {
			return nil, err
		}
		out = plan.NewUnion(out, next, true)
	}
	return out, nil
}

func (b *Builder) buildAssignments(s *scope, tab sql.Table, sets []ast.UpdateSet) ([]plan.Assignment, error) {
	out := make([]plan.Assignment, len(sets))
	for i, set := range sets {
		idx := tab.Schema().IndexOf(set.Column, "")
		if idx == -1 {
			return nil, sql.ErrColumnNotFound.New(set.Column)
		}
		val, err := b.buildExpr(s, set.Value)
		if err != nil {
			return nil, err
		}
		out[i] = plan.Assignment{ColumnIndex: idx, Value: val}
	}
	return out, nil
}

func (b *Builder) buildUpdate(s *scope, n *ast.UpdateStatement) (sql.Node, error) {
	tab, node, sch, err := b.targetTable(s, n.Table)
	if err != nil {
		return nil, err
	}
	dbName, err := s.resolveDB("")
	if err != nil {
		return nil, err
	}
	assignments, err := b.buildAssignments(s.withSchema(sch), tab, n.Set)
	if err != nil {
		return nil, err
	}
	child, err := b.buildMutationPipeline(s, node, sch, n.Where, n.OrderBy, n.Limit)
	if err != nil {
		return nil, err
	}
	return plan.NewUpdate(dbName, tab, assignments, child), nil
}

func (b *Builder) buildDelete(s *scope, n *ast.DeleteStatement) (sql.Node, error) {
	tab, node, sch, err := b.targetTable(s, n.Table)
	if err != nil {
		return nil, err
	}
	dbName, err := s.resolveDB("")
	if err != nil {
		return nil, err
	}
	child, err := b.buildMutationPipeline(s, node, sch, n.Where, n.OrderBy, n.Limit)
	if err != nil {
		return nil, err
	}
	return plan.NewDelete(dbName, tab, child), nil
}
