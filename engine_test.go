package sqle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	sqle "github.com/vinedb/vine"
	"github.com/vinedb/vine/memory"
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/ast"
)

func newTestEngine(t *testing.T) (*sqle.Engine, string) {
	t.Helper()
	db := memory.NewDatabase("mydb")
	cat := sql.NewCatalog()
	cat.AddDatabase(db)
	return sqle.New(cat, nil), db.Name()
}

func runQuery(t *testing.T, e *sqle.Engine, dbName string, stmt ast.Statement) (sql.Schema, []sql.Row) {
	t.Helper()
	ctx := e.NewContext(context.Background(), nil, "")
	defer e.CloseContext(ctx)
	ctx.SetCurrentDatabase(dbName)
	sch, rows, err := e.QueryRows(ctx, stmt)
	require.NoError(t, err)
	return sch, rows
}

func TestEngineCreateInsertSelect(t *testing.T) {
	e, dbName := newTestEngine(t)

	create := &ast.CreateTableStatement{
		Table: "users",
		Columns: []ast.ColumnDef{
			{Name: "id", TypeName: "BIGINT", PrimaryKey: true},
			{Name: "name", TypeName: "TEXT", Nullable: true},
		},
	}
	_, rows := runQuery(t, e, dbName, create)
	require.Empty(t, rows)

	insert := &ast.InsertStatement{
		Table:   ast.TableName{Name: "users"},
		Columns: []string{"id", "name"},
		Rows: [][]ast.Expr{
			{&ast.Literal{Value: int64(1)}, &ast.Literal{Value: "alice"}},
			{&ast.Literal{Value: int64(2)}, &ast.Literal{Value: "bob"}},
		},
	}
	_, rows = runQuery(t, e, dbName, insert)
	require.Empty(t, rows)

	sel := &ast.SelectStatement{
		SelectList: []ast.SelectExpr{
			{Expr: &ast.ColName{Name: "id"}},
			{Expr: &ast.ColName{Name: "name"}},
		},
		From: &ast.TableName{Name: "users"},
		OrderBy: []ast.OrderByExpr{
			{Expr: &ast.ColName{Name: "id"}},
		},
	}
	sch, rows := runQuery(t, e, dbName, sel)
	require.Len(t, sch, 2)
	require.Equal(t, []sql.Row{
		{int64(1), "alice"},
		{int64(2), "bob"},
	}, rows)
}

func TestEngineReadOnlyRejectsWrites(t *testing.T) {
	db := memory.NewDatabase("mydb")
	cat := sql.NewCatalog()
	cat.AddDatabase(db)
	e := sqle.New(cat, &sqle.Config{IsReadOnly: true})

	ctx := e.NewContext(context.Background(), nil, "")
	defer e.CloseContext(ctx)
	ctx.SetCurrentDatabase("mydb")

	_, _, err := e.Query(ctx, &ast.CreateTableStatement{
		Table:   "t",
		Columns: []ast.ColumnDef{{Name: "id", TypeName: "BIGINT"}},
	})
	require.Error(t, err)
	require.True(t, sql.ErrReadOnly.Is(err))
}

func TestEnginePrepareExecuteDeallocate(t *testing.T) {
	e, dbName := newTestEngine(t)
	runQuery(t, e, dbName, &ast.CreateTableStatement{
		Table: "t",
		Columns: []ast.ColumnDef{
			{Name: "id", TypeName: "BIGINT", PrimaryKey: true},
		},
	})
	runQuery(t, e, dbName, &ast.InsertStatement{
		Table:   ast.TableName{Name: "t"},
		Columns: []string{"id"},
		Rows:    [][]ast.Expr{{&ast.Literal{Value: int64(7)}}},
	})

	ctx := e.NewContext(context.Background(), nil, "")
	defer e.CloseContext(ctx)
	ctx.SetCurrentDatabase(dbName)

	sel := &ast.SelectStatement{
		SelectList: []ast.SelectExpr{{Expr: &ast.ColName{Name: "id"}}},
		From:       &ast.TableName{Name: "t"},
	}
	e.Prepare(ctx, "q1", sel)
	sch, rowIter, err := e.Execute(ctx, "q1")
	require.NoError(t, err)
	rs, err := sql.RowIterToRows(ctx, sch, rowIter)
	require.NoError(t, err)
	require.Equal(t, []sql.Row{{int64(7)}}, rs)

	e.Deallocate(ctx, "q1")
	_, _, err = e.Execute(ctx, "q1")
	require.Error(t, err)
}

func TestEngineFlushAll(t *testing.T) {
	e, dbName := newTestEngine(t)
	runQuery(t, e, dbName, &ast.CreateTableStatement{
		Table: "t",
		Columns: []ast.ColumnDef{
			{Name: "id", TypeName: "BIGINT", PrimaryKey: true},
		},
	})
	ctx := e.NewContext(context.Background(), nil, "")
	defer e.CloseContext(ctx)
	require.NoError(t, e.FlushAll(ctx))
}

func TestEngineGroupByAggregate(t *testing.T) {
	e, dbName := newTestEngine(t)
	runQuery(t, e, dbName, &ast.CreateTableStatement{
		Table: "orders",
		Columns: []ast.ColumnDef{
			{Name: "customer", TypeName: "TEXT"},
			{Name: "amount", TypeName: "BIGINT"},
		},
	})
	runQuery(t, e, dbName, &ast.InsertStatement{
		Table:   ast.TableName{Name: "orders"},
		Columns: []string{"customer", "amount"},
		Rows: [][]ast.Expr{
			{&ast.Literal{Value: "alice"}, &ast.Literal{Value: int64(10)}},
			{&ast.Literal{Value: "alice"}, &ast.Literal{Value: int64(5)}},
			{&ast.Literal{Value: "bob"}, &ast.Literal{Value: int64(7)}},
		},
	})

	sel := &ast.SelectStatement{
		SelectList: []ast.SelectExpr{
			{Expr: &ast.ColName{Name: "customer"}},
			{Expr: &ast.FuncCall{Name: "sum", Args: []ast.Expr{&ast.ColName{Name: "amount"}}}, Alias: "total"},
		},
		From:    &ast.TableName{Name: "orders"},
		GroupBy: []ast.Expr{&ast.ColName{Name: "customer"}},
		OrderBy: []ast.OrderByExpr{{Expr: &ast.ColName{Name: "customer"}}},
	}
	sch, rows := runQuery(t, e, dbName, sel)
	require.Len(t, sch, 2)
	require.Equal(t, []sql.Row{
		{"alice", int64(15)},
		{"bob", int64(7)},
	}, rows)
}

func TestEngineUpdateAndDelete(t *testing.T) {
	e, dbName := newTestEngine(t)
	runQuery(t, e, dbName, &ast.CreateTableStatement{
		Table: "items",
		Columns: []ast.ColumnDef{
			{Name: "id", TypeName: "BIGINT", PrimaryKey: true},
			{Name: "qty", TypeName: "BIGINT"},
		},
	})
	runQuery(t, e, dbName, &ast.InsertStatement{
		Table:   ast.TableName{Name: "items"},
		Columns: []string{"id", "qty"},
		Rows: [][]ast.Expr{
			{&ast.Literal{Value: int64(1)}, &ast.Literal{Value: int64(10)}},
			{&ast.Literal{Value: int64(2)}, &ast.Literal{Value: int64(20)}},
		},
	})

	runQuery(t, e, dbName, &ast.UpdateStatement{
		Table: &ast.TableName{Name: "items"},
		Set: []ast.UpdateSet{
			{Column: "qty", Value: &ast.Literal{Value: int64(99)}},
		},
		Where: &ast.BinaryOp{Op: "=", Left: &ast.ColName{Name: "id"}, Right: &ast.Literal{Value: int64(1)}},
	})

	selAll := func() []sql.Row {
		_, rows := runQuery(t, e, dbName, &ast.SelectStatement{
			SelectList: []ast.SelectExpr{{Expr: &ast.ColName{Name: "id"}}, {Expr: &ast.ColName{Name: "qty"}}},
			From:       &ast.TableName{Name: "items"},
			OrderBy:    []ast.OrderByExpr{{Expr: &ast.ColName{Name: "id"}}},
		})
		return rows
	}
	require.Equal(t, []sql.Row{
		{int64(1), int64(99)},
		{int64(2), int64(20)},
	}, selAll())

	runQuery(t, e, dbName, &ast.DeleteStatement{
		Table: &ast.TableName{Name: "items"},
		Where: &ast.BinaryOp{Op: "=", Left: &ast.ColName{Name: "id"}, Right: &ast.Literal{Value: int64(2)}},
	})
	require.Equal(t, []sql.Row{{int64(1), int64(99)}}, selAll())
}

func TestEngineWindowRowNumber(t *testing.T) {
	e, dbName := newTestEngine(t)
	runQuery(t, e, dbName, &ast.CreateTableStatement{
		Table: "scores",
		Columns: []ast.ColumnDef{
			{Name: "team", TypeName: "TEXT"},
			{Name: "points", TypeName: "BIGINT"},
		},
	})
	runQuery(t, e, dbName, &ast.InsertStatement{
		Table:   ast.TableName{Name: "scores"},
		Columns: []string{"team", "points"},
		Rows: [][]ast.Expr{
			{&ast.Literal{Value: "red"}, &ast.Literal{Value: int64(30)}},
			{&ast.Literal{Value: "red"}, &ast.Literal{Value: int64(10)}},
			{&ast.Literal{Value: "blue"}, &ast.Literal{Value: int64(20)}},
		},
	})

	sel := &ast.SelectStatement{
		SelectList: []ast.SelectExpr{
			{Expr: &ast.ColName{Name: "team"}},
			{Expr: &ast.ColName{Name: "points"}},
			{
				Expr: &ast.WindowFuncCall{
					Call: ast.FuncCall{Name: "row_number"},
					Window: ast.WindowSpec{
						PartitionBy: []ast.Expr{&ast.ColName{Name: "team"}},
						OrderBy:     []ast.OrderByExpr{{Expr: &ast.ColName{Name: "points"}, Desc: true}},
					},
				},
				Alias: "rn",
			},
		},
		From: &ast.TableName{Name: "scores"},
		OrderBy: []ast.OrderByExpr{
			{Expr: &ast.ColName{Name: "team"}},
			{Expr: &ast.ColName{Name: "rn"}},
		},
	}
	sch, rows := runQuery(t, e, dbName, sel)
	require.Len(t, sch, 3)
	require.Equal(t, []sql.Row{
		{"blue", int64(20), int64(1)},
		{"red", int64(30), int64(1)},
		{"red", int64(10), int64(2)},
	}, rows)
}

func TestEngineUnion(t *testing.T) {
	e, dbName := newTestEngine(t)
	runQuery(t, e, dbName, &ast.CreateTableStatement{
		Table:   "a",
		Columns: []ast.ColumnDef{{Name: "id", TypeName: "BIGINT"}},
	})
	runQuery(t, e, dbName, &ast.CreateTableStatement{
		Table:   "b",
		Columns: []ast.ColumnDef{{Name: "id", TypeName: "BIGINT"}},
	})
	runQuery(t, e, dbName, &ast.InsertStatement{
		Table: ast.TableName{Name: "a"}, Columns: []string{"id"},
		Rows: [][]ast.Expr{{&ast.Literal{Value: int64(1)}}, {&ast.Literal{Value: int64(2)}}},
	})
	runQuery(t, e, dbName, &ast.InsertStatement{
		Table: ast.TableName{Name: "b"}, Columns: []string{"id"},
		Rows: [][]ast.Expr{{&ast.Literal{Value: int64(2)}}, {&ast.Literal{Value: int64(3)}}},
	})

	sel := &ast.SelectStatement{
		SelectList: []ast.SelectExpr{{Expr: &ast.ColName{Name: "id"}}},
		From:       &ast.TableName{Name: "a"},
		SetOps: []ast.SetOp{
			{Kind: "union", All: false, Rhs: &ast.SelectStatement{
				SelectList: []ast.SelectExpr{{Expr: &ast.ColName{Name: "id"}}},
				From:       &ast.TableName{Name: "b"},
			}},
		},
	}
	_, rows := runQuery(t, e, dbName, sel)
	require.ElementsMatch(t, []sql.Row{
		{int64(1)}, {int64(2)}, {int64(3)},
	}, rows)
}
