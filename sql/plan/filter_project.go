package plan

import "github.com/vinedb/vine/sql"

// unaryNode is embedded by every single-child Node, providing the common
// Children/WithChildren plumbing.
type unaryNode struct {
	Child sql.Node
}

func (n *unaryNode) Children() []sql.Node { return []sql.Node{n.Child} }

func requireOneChild(children []sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New("node takes exactly 1 child")
	}
	return children[0], nil
}

// Filter emits input rows for which Predicate evaluates true; false and
// NULL are skipped (§4.2).
type Filter struct {
	unaryNode
	Predicate sql.Expression
}

func NewFilter(predicate sql.Expression, child sql.Node) *Filter {
	return &Filter{unaryNode{child}, predicate}
}

func (n *Filter) Schema() sql.Schema { return n.Child.Schema() }
func (n *Filter) Resolved() bool     { return n.Predicate.Resolved() && n.Child.Resolved() }
func (n *Filter) String() string     { return "Filter(" + n.Predicate.String() + ")" }
func (n *Filter) Expressions() []sql.Expression { return []sql.Expression{n.Predicate} }
func (n *Filter) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != 1 {
		return nil, sql.ErrInvariantBreach.New("Filter takes 1 expression")
	}
	return NewFilter(exprs[0], n.Child), nil
}
func (n *Filter) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	return NewFilter(n.Predicate, c), nil
}

// ProjectColumn is one Project output: Expr computes the value, Name/Source
// name the output schema column it's bound to.
type ProjectColumn struct {
	Expr   sql.Expression
	Name   string
	Source string
}

// Project emits a row per input row with values computed by Columns; the
// output schema carries each column's declared name/type (§4.2).
type Project struct {
	unaryNode
	Columns []ProjectColumn
}

func NewProject(columns []ProjectColumn, child sql.Node) *Project {
	return &Project{unaryNode{child}, columns}
}

func (n *Project) Schema() sql.Schema {
	sch := make(sql.Schema, len(n.Columns))
	for i, c := range n.Columns {
		sch[i] = &sql.Column{Name: c.Name, Source: c.Source, Type: c.Expr.Type(), Nullable: true}
	}
	return sch
}
func (n *Project) Resolved() bool {
	if !n.Child.Resolved() {
		return false
	}
	for _, c := range n.Columns {
		if !c.Expr.Resolved() {
			return false
		}
	}
	return true
}
func (n *Project) String() string { return "Project" }
func (n *Project) Expressions() []sql.Expression {
	exprs := make([]sql.Expression, len(n.Columns))
	for i, c := range n.Columns {
		exprs[i] = c.Expr
	}
	return exprs
}
func (n *Project) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(n.Columns) {
		return nil, sql.ErrInvariantBreach.New("Project expression count mismatch")
	}
	cols := make([]ProjectColumn, len(n.Columns))
	for i, c := range n.Columns {
		cols[i] = ProjectColumn{Expr: exprs[i], Name: c.Name, Source: c.Source}
	}
	return NewProject(cols, n.Child), nil
}
func (n *Project) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	return NewProject(n.Columns, c), nil
}

// Alias re-binds the input schema under a new table name; values are
// unchanged (§4.2).
type Alias struct {
	unaryNode
	TableAlias string
}

func NewAlias(tableAlias string, child sql.Node) *Alias {
	return &Alias{unaryNode{child}, tableAlias}
}

func (n *Alias) Name() string      { return n.TableAlias }
func (n *Alias) Schema() sql.Schema { return n.Child.Schema().WithSource(n.TableAlias) }
func (n *Alias) Resolved() bool     { return n.Child.Resolved() }
func (n *Alias) String() string     { return "Alias(" + n.TableAlias + ")" }
func (n *Alias) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	return NewAlias(n.TableAlias, c), nil
}
