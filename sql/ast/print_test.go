package ast_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinedb/vine/sql/ast"
)

func TestSelectStatementStringBasic(t *testing.T) {
	sel := &ast.SelectStatement{
		SelectList: []ast.SelectExpr{
			{Expr: &ast.ColName{Name: "id"}},
			{Expr: &ast.ColName{Table: "t", Name: "name"}, Alias: "n"},
		},
		From:  &ast.TableName{Name: "widgets"},
		Where: &ast.BinaryOp{Op: "=", Left: &ast.ColName{Name: "id"}, Right: &ast.Literal{Value: int64(1)}},
		OrderBy: []ast.OrderByExpr{
			{Expr: &ast.ColName{Name: "id"}, Desc: true},
		},
		Limit: &ast.Literal{Value: int64(10)},
	}

	got := sel.String()
	require.Equal(t, "SELECT id, t.name AS n FROM widgets WHERE (id = 1) ORDER BY id DESC LIMIT 10", got)
}

func TestSelectStatementStringDistinctAndGroupBy(t *testing.T) {
	sel := &ast.SelectStatement{
		Distinct: true,
		SelectList: []ast.SelectExpr{
			{Expr: &ast.ColName{Name: "customer"}},
			{Expr: &ast.FuncCall{Name: "count", Args: []ast.Expr{&ast.Star{}}}},
		},
		From:    &ast.TableName{Name: "orders"},
		GroupBy: []ast.Expr{&ast.ColName{Name: "customer"}},
		Having:  &ast.BinaryOp{Op: ">", Left: &ast.FuncCall{Name: "count", Args: []ast.Expr{&ast.Star{}}}, Right: &ast.Literal{Value: int64(1)}},
	}

	got := sel.String()
	require.Contains(t, got, "SELECT DISTINCT customer, count(*)")
	require.Contains(t, got, "GROUP BY customer")
	require.Contains(t, got, "HAVING (count(*) > 1)")
}

func TestSelectStatementStringJoin(t *testing.T) {
	sel := &ast.SelectStatement{
		SelectList: []ast.SelectExpr{{Expr: &ast.Star{}}},
		From: &ast.JoinExpr{
			Kind: ast.JoinLeft,
			Left: &ast.TableName{Name: "a"},
			Right: &ast.TableName{Name: "b"},
			On: &ast.BinaryOp{Op: "=", Left: &ast.ColName{Table: "a", Name: "id"}, Right: &ast.ColName{Table: "b", Name: "a_id"}},
		},
	}

	got := sel.String()
	require.Equal(t, "SELECT * FROM a LEFT JOIN b ON (a.id = b.a_id)", got)
}

func TestSelectStatementStringSetOpAndCTE(t *testing.T) {
	inner := &ast.SelectStatement{
		SelectList: []ast.SelectExpr{{Expr: &ast.ColName{Name: "id"}}},
		From:       &ast.TableName{Name: "b"},
	}
	sel := &ast.SelectStatement{
		CTEs: []ast.CommonTableExpr{
			{Name: "cte1", Select: &ast.SelectStatement{
				SelectList: []ast.SelectExpr{{Expr: &ast.ColName{Name: "x"}}},
				From:       &ast.TableName{Name: "t"},
			}},
		},
		SelectList: []ast.SelectExpr{{Expr: &ast.ColName{Name: "id"}}},
		From:       &ast.TableName{Name: "a"},
		SetOps: []ast.SetOp{
			{Kind: "union", All: true, Rhs: inner},
		},
	}

	got := sel.String()
	require.Contains(t, got, "WITH cte1 AS (SELECT x FROM t)")
	require.Contains(t, got, "UNION ALL SELECT id FROM b")
}
