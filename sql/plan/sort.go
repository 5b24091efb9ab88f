package plan

import "github.com/vinedb/vine/sql"

// SortField is one ORDER BY key: Desc reverses direction; NULLs order low
// regardless of direction (§4.2).
type SortField struct {
	Expr sql.Expression
	Desc bool
}

// OrderBy is a total in-memory sort over declared keys (§4.2).
type OrderBy struct {
	unaryNode
	Fields []SortField
}

func NewOrderBy(fields []SortField, child sql.Node) *OrderBy {
	return &OrderBy{unaryNode{child}, fields}
}

func (n *OrderBy) Schema() sql.Schema { return n.Child.Schema() }
func (n *OrderBy) Resolved() bool {
	if !n.Child.Resolved() {
		return false
	}
	for _, f := range n.Fields {
		if !f.Expr.Resolved() {
			return false
		}
	}
	return true
}
func (n *OrderBy) String() string { return "OrderBy" }
func (n *OrderBy) Expressions() []sql.Expression {
	exprs := make([]sql.Expression, len(n.Fields))
	for i, f := range n.Fields {
		exprs[i] = f.Expr
	}
	return exprs
}
func (n *OrderBy) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(n.Fields) {
		return nil, sql.ErrInvariantBreach.New("OrderBy expression count mismatch")
	}
	fields := make([]SortField, len(n.Fields))
	for i, f := range n.Fields {
		fields[i] = SortField{Expr: exprs[i], Desc: f.Desc}
	}
	return NewOrderBy(fields, n.Child), nil
}
func (n *OrderBy) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	return NewOrderBy(n.Fields, c), nil
}

// ExternalSort is OrderBy with a configured memory budget (§4.4): the
// buffer spills sorted runs to disk and k-way-merges them once estimated
// in-memory bytes cross BudgetBytes. Planbuilder chooses this over OrderBy
// when the input is expected to exceed the session's sort-buffer setting.
type ExternalSort struct {
	unaryNode
	Fields      []SortField
	BudgetBytes int64
}

func NewExternalSort(fields []SortField, budgetBytes int64, child sql.Node) *ExternalSort {
	return &ExternalSort{unaryNode{child}, fields, budgetBytes}
}

func (n *ExternalSort) Schema() sql.Schema { return n.Child.Schema() }
func (n *ExternalSort) Resolved() bool {
	if !n.Child.Resolved() {
		return false
	}
	for _, f := range n.Fields {
		if !f.Expr.Resolved() {
			return false
		}
	}
	return true
}
func (n *ExternalSort) String() string { return "ExternalSort" }
func (n *ExternalSort) Expressions() []sql.Expression {
	exprs := make([]sql.Expression, len(n.Fields))
	for i, f := range n.Fields {
		exprs[i] = f.Expr
	}
	return exprs
}
func (n *ExternalSort) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(n.Fields) {
		return nil, sql.ErrInvariantBreach.New("ExternalSort expression count mismatch")
	}
	fields := make([]SortField, len(n.Fields))
	for i, f := range n.Fields {
		fields[i] = SortField{Expr: exprs[i], Desc: f.Desc}
	}
	return NewExternalSort(fields, n.BudgetBytes, n.Child), nil
}
func (n *ExternalSort) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	return NewExternalSort(n.Fields, n.BudgetBytes, c), nil
}
