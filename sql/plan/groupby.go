package plan

import "github.com/vinedb/vine/sql"

// AggExpr is one GroupBy output column: either a group-by key (Agg == nil,
// Key set) or an aggregate (Agg set). Both carry the declared output name.
type AggExpr struct {
	Key  sql.Expression
	Agg  sql.Aggregation
	Name string
}

func (a AggExpr) expr() sql.Expression {
	if a.Agg != nil {
		return a.Agg
	}
	return a.Key
}

// GroupBy is single-pass hash aggregation (§4.2): GroupCols are hashed to
// form the group key; Aggregates fold per group. With no grouping columns
// and empty input, one row of initial aggregate values is still emitted
// (count=0, sum=NULL, min/max=NULL) — the spillable hash aggregator in
// package rowexec implements that edge case.
type GroupBy struct {
	unaryNode
	GroupCols  []sql.Expression
	Aggregates []AggExpr
	// BudgetGroups overrides rowexec's default resident-group budget before
	// falling back to whole-input re-aggregation (§4.4); zero means "use
	// the default".
	BudgetGroups int64
}

func NewGroupBy(groupCols []sql.Expression, aggregates []AggExpr, child sql.Node) *GroupBy {
	return &GroupBy{unaryNode: unaryNode{child}, GroupCols: groupCols, Aggregates: aggregates}
}

func (n *GroupBy) Schema() sql.Schema {
	sch := make(sql.Schema, len(n.Aggregates))
	for i, a := range n.Aggregates {
		sch[i] = &sql.Column{Name: a.Name, Type: a.expr().Type(), Nullable: true}
	}
	return sch
}
func (n *GroupBy) Resolved() bool {
	if !n.Child.Resolved() {
		return false
	}
	for _, c := range n.GroupCols {
		if !c.Resolved() {
			return false
		}
	}
	for _, a := range n.Aggregates {
		if !a.expr().Resolved() {
			return false
		}
	}
	return true
}
func (n *GroupBy) String() string { return "GroupBy" }
func (n *GroupBy) Expressions() []sql.Expression {
	exprs := append([]sql.Expression{}, n.GroupCols...)
	for _, a := range n.Aggregates {
		exprs = append(exprs, a.expr())
	}
	return exprs
}
func (n *GroupBy) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(n.GroupCols)+len(n.Aggregates) {
		return nil, sql.ErrInvariantBreach.New("GroupBy expression count mismatch")
	}
	groupCols := append([]sql.Expression{}, exprs[:len(n.GroupCols)]...)
	rest := exprs[len(n.GroupCols):]
	aggs := make([]AggExpr, len(n.Aggregates))
	for i, a := range n.Aggregates {
		if agg, ok := rest[i].(sql.Aggregation); ok {
			aggs[i] = AggExpr{Agg: agg, Name: a.Name}
		} else {
			aggs[i] = AggExpr{Key: rest[i], Name: a.Name}
		}
	}
	out := NewGroupBy(groupCols, aggs, n.Child)
	out.BudgetGroups = n.BudgetGroups
	return out, nil
}
func (n *GroupBy) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	out := NewGroupBy(n.GroupCols, n.Aggregates, c)
	out.BudgetGroups = n.BudgetGroups
	return out, nil
}
