package ast

import (
	"fmt"
	"strings"
)

// String renders sel back to SQL text. It exists so CREATE VIEW can store
// a reparsable definition (§4.6: "its SELECT text is bound lazily on first
// reference") without the planbuilder retaining the statement's original
// source text. The output is not byte-for-byte the original, and two forms
// do not survive the trip: a window call prints with an empty OVER (),
// dropping its PARTITION BY and ORDER BY, and every UnaryOp prints as a
// prefix, so IS NULL / IS NOT NULL come out ahead of their operand.
func (sel *SelectStatement) String() string {
	var b strings.Builder
	if len(sel.CTEs) > 0 {
		b.WriteString("WITH ")
		for i, c := range sel.CTEs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			if len(c.Columns) > 0 {
				fmt.Fprintf(&b, "(%s)", strings.Join(c.Columns, ", "))
			}
			fmt.Fprintf(&b, " AS (%s)", c.Select.String())
		}
		b.WriteString(" ")
	}
	b.WriteString("SELECT ")
	if sel.Distinct {
		b.WriteString("DISTINCT ")
	}
	for i, item := range sel.SelectList {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(exprString(item.Expr))
		if item.Alias != "" {
			b.WriteString(" AS ")
			b.WriteString(item.Alias)
		}
	}
	if sel.From != nil {
		b.WriteString(" FROM ")
		b.WriteString(tableExprString(sel.From))
	}
	if sel.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(exprString(sel.Where))
	}
	if len(sel.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		for i, g := range sel.GroupBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(exprString(g))
		}
	}
	if sel.Having != nil {
		b.WriteString(" HAVING ")
		b.WriteString(exprString(sel.Having))
	}
	if len(sel.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range sel.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(exprString(o.Expr))
			if o.Desc {
				b.WriteString(" DESC")
			}
		}
	}
	if sel.Limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(exprString(sel.Limit))
	}
	if sel.Offset != nil {
		b.WriteString(" OFFSET ")
		b.WriteString(exprString(sel.Offset))
	}
	for _, op := range sel.SetOps {
		fmt.Fprintf(&b, " %s ", strings.ToUpper(op.Kind))
		if op.All {
			b.WriteString("ALL ")
		}
		b.WriteString(op.Rhs.String())
	}
	return b.String()
}

func tableExprString(te TableExpr) string {
	switch t := te.(type) {
	case *TableName:
		s := t.Name
		if t.Database != "" {
			s = t.Database + "." + s
		}
		if t.Alias != "" {
			s += " AS " + t.Alias
		}
		return s
	case *DerivedTable:
		s := "(" + t.Select.String() + ")"
		if t.Alias != "" {
			s += " AS " + t.Alias
		}
		return s
	case *JoinExpr:
		kind := map[JoinKind]string{
			JoinInner: "JOIN", JoinLeft: "LEFT JOIN", JoinRight: "RIGHT JOIN",
			JoinFull: "FULL JOIN", JoinCross: "CROSS JOIN",
		}[t.Kind]
		s := tableExprString(t.Left) + " " + kind + " " + tableExprString(t.Right)
		switch {
		case t.On != nil:
			s += " ON " + exprString(t.On)
		case len(t.Using) > 0:
			s += " USING (" + strings.Join(t.Using, ", ") + ")"
		}
		return s
	default:
		return ""
	}
}

func exprString(e Expr) string {
	if e == nil {
		return ""
	}
	switch n := e.(type) {
	case *ColName:
		if n.Table != "" {
			return n.Table + "." + n.Name
		}
		return n.Name
	case *Literal:
		return literalString(n.Value)
	case *Star:
		if n.Table != "" {
			return n.Table + ".*"
		}
		return "*"
	case *BinaryOp:
		return "(" + exprString(n.Left) + " " + n.Op + " " + exprString(n.Right) + ")"
	case *UnaryOp:
		return n.Op + " " + exprString(n.Expr)
	case *Between:
		s := exprString(n.Val)
		if n.Not {
			s += " NOT"
		}
		return s + " BETWEEN " + exprString(n.Lower) + " AND " + exprString(n.Upper)
	case *CaseExpr:
		var b strings.Builder
		b.WriteString("CASE ")
		if n.Value != nil {
			b.WriteString(exprString(n.Value) + " ")
		}
		for _, br := range n.Branches {
			fmt.Fprintf(&b, "WHEN %s THEN %s ", exprString(br.Cond), exprString(br.Then))
		}
		if n.Else != nil {
			b.WriteString("ELSE " + exprString(n.Else) + " ")
		}
		b.WriteString("END")
		return b.String()
	case *InExpr:
		items := make([]string, len(n.List))
		for i, it := range n.List {
			items[i] = exprString(it)
		}
		s := exprString(n.Left)
		if n.Not {
			s += " NOT"
		}
		return s + " IN (" + strings.Join(items, ", ") + ")"
	case *InSubquery:
		s := exprString(n.Left)
		if n.Not {
			s += " NOT"
		}
		return s + " IN (" + n.Subquery.Select.String() + ")"
	case *Quantified:
		q := "ANY"
		if n.All {
			q = "ALL"
		}
		return exprString(n.Left) + " " + n.Op + " " + q + " (" + n.Subquery.Select.String() + ")"
	case *ExistsExpr:
		s := ""
		if n.Not {
			s = "NOT "
		}
		return s + "EXISTS (" + n.Subquery.Select.String() + ")"
	case *FuncCall:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = exprString(a)
		}
		d := ""
		if n.Distinct {
			d = "DISTINCT "
		}
		return n.Name + "(" + d + strings.Join(args, ", ") + ")"
	case *WindowFuncCall:
		return exprString(&n.Call) + " OVER ()"
	case *SelectStatement:
		return "(" + n.String() + ")"
	default:
		return ""
	}
}

func literalString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", val)
	}
}
