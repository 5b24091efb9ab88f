package sql

// Node is the structural contract every plan node satisfies (§9: "a
// capability set {open, next, close, schema, dispose} expressed as an
// interface"). Package plan's concrete node types implement this; package
// rowexec turns a Node tree into a RowIter tree.
type Node interface {
	// Schema is stable across the node's lifecycle and available before
	// execution (§4.2).
	Schema() Schema
	// Children returns this node's child nodes, for tree traversal.
	Children() []Node
	// WithChildren returns a copy of this node with its children replaced.
	WithChildren(children ...Node) (Node, error)
	// Resolved reports whether every expression and child of this node has
	// been fully bound (no unresolved column references remain).
	Resolved() bool
	String() string
}

// Expressioner is implemented by nodes that carry expressions directly
// (Filter's predicate, Project's projections, GroupBy's aggregates, ...),
// letting generic tree walks (e.g. correlated-subquery detection) visit
// every expression in a plan without a type switch per node kind.
type Expressioner interface {
	Node
	Expressions() []Expression
	WithExpressions(exprs ...Expression) (Node, error)
}

// NameableNode is implemented by nodes that expose a table-like name used
// to qualify their output schema's columns (TableScan, Alias, CteOperator).
type NameableNode interface {
	Node
	Name() string
}

// NodeExecutor builds and drives a Node tree into a RowIter. Package rowexec
// assigns the real implementation at init time. This indirection lets
// sql/expression's Subquery run a Node (a correlated or scalar subquery
// plan) without sql/expression importing rowexec, which itself imports
// expression to evaluate predicates and projections.
var NodeExecutor func(ctx *Context, n Node) (RowIter, error)
