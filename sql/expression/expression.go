// Package expression compiles AST expressions into typed evaluator trees
// and evaluates them against rows (§4.1). An evaluator is built once against
// a schema and reused for every row; building never touches a row, and
// evaluating never mutates the tree.
package expression

import "github.com/vinedb/vine/sql"

// Expression is re-exported for package-local readability; it is identical
// to sql.Expression (defined there to avoid an import cycle with sql).
type Expression = sql.Expression

// UnaryExpression is embedded by expressions with exactly one child.
type UnaryExpression struct {
	Child sql.Expression
}

func (e *UnaryExpression) Children() []sql.Expression { return []sql.Expression{e.Child} }
func (e *UnaryExpression) Resolved() bool             { return e.Child.Resolved() }

// BinaryExpression is embedded by expressions with exactly two children.
type BinaryExpression struct {
	Left, Right sql.Expression
}

func (e *BinaryExpression) Children() []sql.Expression {
	return []sql.Expression{e.Left, e.Right}
}
func (e *BinaryExpression) Resolved() bool {
	return e.Left.Resolved() && e.Right.Resolved()
}

// NaryExpression is embedded by expressions with a variable number of
// children (function calls, IN lists, CASE).
type NaryExpression struct {
	ChildExprs []sql.Expression
}

func (e *NaryExpression) Children() []sql.Expression { return e.ChildExprs }
func (e *NaryExpression) Resolved() bool {
	for _, c := range e.ChildExprs {
		if !c.Resolved() {
			return false
		}
	}
	return true
}

// IsTrue reports whether v (the result of evaluating a Bool expression) is
// SQL-true: non-nil and true. Used by Filter and WHERE/HAVING/JOIN
// predicates, where both NULL and false are treated as "no match" (§4.1
// three-valued logic, §4.2 Filter semantics).
func IsTrue(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}
