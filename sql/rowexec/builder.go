// Package rowexec turns a sql.Node plan tree into the sql.RowIter tree that
// actually drives execution (§4.2): one Build call per node, dispatching on
// concrete type, each producing an iterator over its already-built
// children. This is the physical-operator layer the spec's component
// budget weighs heaviest.
package rowexec

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/plan"
)

func init() {
	// Registers this package's Build as the indirection sql/expression's
	// Subquery calls to run a correlated or scalar subquery plan, without
	// sql/expression importing rowexec (which imports expression to
	// evaluate predicates and projections) — see sql.NodeExecutor's doc.
	sql.NodeExecutor = Build
}

// Build compiles n into a driveable RowIter. Every Node case builds its
// children first (bottom-up), matching the operator tree's own shape.
func Build(ctx *sql.Context, n sql.Node) (sql.RowIter, error) {
	switch node := n.(type) {
	case *plan.TableScan:
		return buildTableScan(ctx, node)
	case *plan.IndexScan:
		return buildIndexScan(ctx, node)
	case *plan.Dual:
		return sql.RowsToRowIter(sql.NewRow()), nil
	case *plan.InformationSchema:
		return sql.RowsToRowIter(node.Rows...), nil
	case *plan.Filter:
		return buildFilter(ctx, node)
	case *plan.Project:
		return buildProject(ctx, node)
	case *plan.Alias:
		return Build(ctx, node.Child)
	case *plan.NestedLoopJoin:
		return buildNestedLoopJoin(ctx, node)
	case *plan.GroupBy:
		return buildGroupBy(ctx, node)
	case *plan.OrderBy:
		return buildOrderBy(ctx, node)
	case *plan.ExternalSort:
		return buildExternalSort(ctx, node)
	case *plan.Distinct:
		return buildDistinct(ctx, node)
	case *plan.SpillableDistinct:
		return buildSpillableDistinct(ctx, node)
	case *plan.Limit:
		return buildLimit(ctx, node)
	case *plan.Union:
		return buildUnion(ctx, node)
	case *plan.Intersect:
		return buildIntersect(ctx, node)
	case *plan.Except:
		return buildExcept(ctx, node)
	case *plan.Window:
		return buildWindow(ctx, node)
	case *plan.CteOperator:
		return buildCteOperator(ctx, node)
	case *plan.Insert:
		return buildInsert(ctx, node)
	case *plan.Update:
		return buildUpdate(ctx, node)
	case *plan.Delete:
		return buildDelete(ctx, node)
	case *plan.CreateTable:
		return buildCreateTable(ctx, node)
	case *plan.DropTable:
		return buildDropTable(ctx, node)
	case *plan.AlterTable:
		return buildAlterTable(ctx, node)
	case *plan.CreateIndex:
		return buildCreateIndex(ctx, node)
	case *plan.DropIndex:
		return buildDropIndex(ctx, node)
	case *plan.CreateView:
		return buildCreateView(ctx, node)
	case *plan.DropView:
		return buildDropView(ctx, node)
	case *plan.TransactionControl:
		return buildTransactionControl(ctx, node)
	case *plan.Set:
		return buildSet(ctx, node)
	case *plan.Show:
		return sql.RowsToRowIter(node.Rows...), nil
	case *plan.Call:
		return buildCall(ctx, node)
	default:
		return nil, sql.ErrUnsupportedFeature.New("no physical operator for node type")
	}
}

// oneRowAffected is the stock RowIter DDL/transaction/admin nodes return: a
// single rows_affected row, mirroring a MySQL OK packet.
func oneRowAffected(n int64) sql.RowIter {
	return sql.RowsToRowIter(sql.NewRow(n))
}
