package planbuilder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinedb/vine/memory"
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/ast"
	"github.com/vinedb/vine/sql/expression/function"
	"github.com/vinedb/vine/sql/plan"
	"github.com/vinedb/vine/sql/planbuilder"
	"github.com/vinedb/vine/sql/types"
)

func newTestCatalog(t *testing.T) (*sql.Catalog, string) {
	t.Helper()
	db := memory.NewDatabase("db")
	require.NoError(t, db.CreateTable(sql.NewEmptyContext(), "orders", sql.Schema{
		{Name: "id", Source: "orders", Type: types.Int64, PrimaryKey: true},
		{Name: "customer", Source: "orders", Type: types.Text},
		{Name: "amount", Source: "orders", Type: types.Int64},
	}))
	require.NoError(t, db.CreateTable(sql.NewEmptyContext(), "customers", sql.Schema{
		{Name: "id", Source: "customers", Type: types.Int64, PrimaryKey: true},
		{Name: "name", Source: "customers", Type: types.Text},
	}))
	cat := sql.NewCatalog()
	cat.AddDatabase(db)
	return cat, db.Name()
}

func newTestBuilder(cat *sql.Catalog) *planbuilder.Builder {
	return planbuilder.New(cat, function.NewDefaultRegistry())
}

func TestBuildSelectGroupByAggregate(t *testing.T) {
	cat, dbName := newTestCatalog(t)
	b := newTestBuilder(cat)

	stmt := &ast.SelectStatement{
		SelectList: []ast.SelectExpr{
			{Expr: &ast.ColName{Name: "customer"}},
			{Expr: &ast.FuncCall{Name: "count", Args: []ast.Expr{&ast.Star{}}}, Alias: "cnt"},
		},
		From:    &ast.TableName{Name: "orders"},
		GroupBy: []ast.Expr{&ast.ColName{Name: "customer"}},
	}

	node, err := b.Build(sql.NewEmptyContext(), dbName, stmt)
	require.NoError(t, err)
	require.NotNil(t, node)

	gb, ok := node.(*plan.GroupBy)
	require.True(t, ok, "expected *plan.GroupBy, got %T", node)
	require.Len(t, gb.Aggregates, 2)
	require.Nil(t, gb.Aggregates[0].Agg)
	require.NotNil(t, gb.Aggregates[1].Agg)
	require.Equal(t, "cnt", gb.Aggregates[1].Name)
}

func TestBuildSelectJoin(t *testing.T) {
	cat, dbName := newTestCatalog(t)
	b := newTestBuilder(cat)

	stmt := &ast.SelectStatement{
		SelectList: []ast.SelectExpr{
			{Expr: &ast.ColName{Table: "orders", Name: "id"}},
			{Expr: &ast.ColName{Table: "customers", Name: "name"}},
		},
		From: &ast.JoinExpr{
			Kind: ast.JoinInner,
			Left: &ast.TableName{Name: "orders"},
			Right: &ast.TableName{Name: "customers"},
			On: &ast.BinaryOp{
				Op:    "=",
				Left:  &ast.ColName{Table: "orders", Name: "customer"},
				Right: &ast.ColName{Table: "customers", Name: "id"},
			},
		},
	}

	node, err := b.Build(sql.NewEmptyContext(), dbName, stmt)
	require.NoError(t, err)
	require.Len(t, node.Schema(), 2)
}

func TestBuildSelectOrderByLimit(t *testing.T) {
	cat, dbName := newTestCatalog(t)
	b := newTestBuilder(cat)

	stmt := &ast.SelectStatement{
		SelectList: []ast.SelectExpr{{Expr: &ast.ColName{Name: "id"}}},
		From:       &ast.TableName{Name: "orders"},
		OrderBy: []ast.OrderByExpr{
			{Expr: &ast.ColName{Name: "amount"}, Desc: true},
		},
		Limit: &ast.Literal{Value: int64(5)},
	}

	node, err := b.Build(sql.NewEmptyContext(), dbName, stmt)
	require.NoError(t, err)
	_, ok := node.(*plan.Limit)
	require.True(t, ok, "expected *plan.Limit at the root, got %T", node)
}

func TestBuildSelectUnknownColumnErrors(t *testing.T) {
	cat, dbName := newTestCatalog(t)
	b := newTestBuilder(cat)

	stmt := &ast.SelectStatement{
		SelectList: []ast.SelectExpr{{Expr: &ast.ColName{Name: "nope"}}},
		From:       &ast.TableName{Name: "orders"},
	}

	_, err := b.Build(sql.NewEmptyContext(), dbName, stmt)
	require.Error(t, err)
}

func TestBuildCreateTable(t *testing.T) {
	cat, dbName := newTestCatalog(t)
	b := newTestBuilder(cat)

	stmt := &ast.CreateTableStatement{
		Table: "widgets",
		Columns: []ast.ColumnDef{
			{Name: "id", TypeName: "BIGINT", PrimaryKey: true},
			{Name: "label", TypeName: "VARCHAR", Length: 64, Nullable: true},
		},
	}

	node, err := b.Build(sql.NewEmptyContext(), dbName, stmt)
	require.NoError(t, err)
	_, ok := node.(*plan.CreateTable)
	require.True(t, ok, "expected *plan.CreateTable, got %T", node)
}
